// Package notify tracks in-flight operations per activity and turns the counts
// into show/hide signals for transient progress indicators, plus persistent errors.
package notify

import (
	"slices"
	"sync"

	"github.com/aretw0/outline/pkg/domain"
)

// ActivityListener receives show (active=true) and hide (active=false) transitions.
type ActivityListener func(activity domain.Activity, active bool)

// ErrorListener receives persistent error messages with the operation context.
type ErrorListener func(kind domain.OperationKind, message string, err error)

// Orchestrator counts in-flight operations per activity.
// Listeners are invoked one at a time, in transition order, without any lock held,
// so they may query the Orchestrator or start new operations.
type Orchestrator struct {
	mu     sync.Mutex
	counts map[domain.Activity]int
	queue  []notification

	nextID   int
	activity []subscription[ActivityListener]
	errors   []subscription[ErrorListener]

	emitMu sync.Mutex
}

type subscription[L any] struct {
	id int
	fn L
}

type notification struct {
	activity domain.Activity
	active   bool

	isError bool
	kind    domain.OperationKind
	message string
	err     error
}

// New creates an empty Orchestrator.
func New() *Orchestrator {
	return &Orchestrator{
		counts: make(map[domain.Activity]int),
	}
}

// OnActivityChanged registers l and returns a function that unregisters it.
func (o *Orchestrator) OnActivityChanged(l ActivityListener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.activity = append(o.activity, subscription[ActivityListener]{id, l})
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.activity = slices.DeleteFunc(o.activity, func(s subscription[ActivityListener]) bool { return s.id == id })
	}
}

// OnError registers l and returns a function that unregisters it.
func (o *Orchestrator) OnError(l ErrorListener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.errors = append(o.errors, subscription[ErrorListener]{id, l})
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.errors = slices.DeleteFunc(o.errors, func(s subscription[ErrorListener]) bool { return s.id == id })
	}
}

// Begin increments the activity counter and emits show on 0 -> 1.
func (o *Orchestrator) Begin(a domain.Activity) {
	o.mu.Lock()
	o.counts[a]++
	if o.counts[a] == 1 {
		o.queue = append(o.queue, notification{activity: a, active: true})
	}
	o.mu.Unlock()
	o.flush()
}

// End decrements the activity counter and emits hide on 1 -> 0.
// Unbalanced calls are ignored.
func (o *Orchestrator) End(a domain.Activity) {
	o.mu.Lock()
	if o.counts[a] == 0 {
		o.mu.Unlock()
		return
	}
	o.counts[a]--
	if o.counts[a] == 0 {
		delete(o.counts, a)
		o.queue = append(o.queue, notification{activity: a, active: false})
	}
	o.mu.Unlock()
	o.flush()
}

// Fail ends the activity and emits a persistent error.
func (o *Orchestrator) Fail(a domain.Activity, kind domain.OperationKind, message string, err error) {
	o.End(a)
	o.Error(kind, message, err)
}

// Error emits a persistent error without touching the counters.
func (o *Orchestrator) Error(kind domain.OperationKind, message string, err error) {
	o.mu.Lock()
	o.queue = append(o.queue, notification{isError: true, kind: kind, message: message, err: err})
	o.mu.Unlock()
	o.flush()
}

// InFlight returns the number of in-flight operations for a.
func (o *Orchestrator) InFlight(a domain.Activity) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[a]
}

// Active reports whether the indicator for a is shown.
func (o *Orchestrator) Active(a domain.Activity) bool {
	return o.InFlight(a) > 0
}

// flush delivers queued notifications in order. A listener that triggers another
// notification returns immediately; the outer flush delivers it after the current one.
func (o *Orchestrator) flush() {
	for {
		if !o.emitMu.TryLock() {
			return
		}
		for {
			o.mu.Lock()
			if len(o.queue) == 0 {
				o.mu.Unlock()
				break
			}
			n := o.queue[0]
			o.queue = o.queue[1:]
			activity := slices.Clone(o.activity)
			errs := slices.Clone(o.errors)
			o.mu.Unlock()

			if n.isError {
				for _, s := range errs {
					s.fn(n.kind, n.message, n.err)
				}
				continue
			}
			for _, s := range activity {
				s.fn(n.activity, n.active)
			}
		}
		o.emitMu.Unlock()

		o.mu.Lock()
		empty := len(o.queue) == 0
		o.mu.Unlock()
		if empty {
			return
		}
	}
}
