package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct {
	activity domain.Activity
	active   bool
}

func record(o *Orchestrator) *[]transition {
	var got []transition
	o.OnActivityChanged(func(a domain.Activity, active bool) {
		got = append(got, transition{a, active})
	})
	return &got
}

func TestOrchestrator_Counting(t *testing.T) {
	o := New()
	got := record(o)

	o.Begin(domain.ActivityDeleting)
	o.Begin(domain.ActivityDeleting)
	o.End(domain.ActivityDeleting)
	assert.Equal(t, []transition{{domain.ActivityDeleting, true}}, *got, "one end must not hide")
	assert.True(t, o.Active(domain.ActivityDeleting))

	o.End(domain.ActivityDeleting)
	assert.Equal(t, []transition{
		{domain.ActivityDeleting, true},
		{domain.ActivityDeleting, false},
	}, *got)
	assert.Equal(t, 0, o.InFlight(domain.ActivityDeleting))

	o.End(domain.ActivityDeleting)
	assert.Len(t, *got, 2, "unbalanced end is ignored")
}

func TestOrchestrator_ActivitiesAreIndependent(t *testing.T) {
	o := New()
	got := record(o)

	o.Begin(domain.ActivitySaving)
	o.Begin(domain.ActivityPublishing)
	o.End(domain.ActivitySaving)

	assert.Equal(t, []transition{
		{domain.ActivitySaving, true},
		{domain.ActivityPublishing, true},
		{domain.ActivitySaving, false},
	}, *got)
	assert.True(t, o.Active(domain.ActivityPublishing))
}

func TestOrchestrator_FailClearsIndicator(t *testing.T) {
	o := New()
	got := record(o)

	var messages []string
	o.OnError(func(kind domain.OperationKind, message string, err error) {
		assert.Equal(t, domain.OpDelete, kind)
		assert.Error(t, err)
		messages = append(messages, message)
	})

	o.Begin(domain.ActivityDeleting)
	o.Fail(domain.ActivityDeleting, domain.OpDelete, "Could not delete item", errors.New("boom"))

	assert.False(t, o.Active(domain.ActivityDeleting))
	assert.Equal(t, transition{domain.ActivityDeleting, false}, (*got)[len(*got)-1])
	assert.Equal(t, []string{"Could not delete item"}, messages)
}

func TestOrchestrator_Unsubscribe(t *testing.T) {
	o := New()
	calls := 0
	off := o.OnActivityChanged(func(domain.Activity, bool) { calls++ })
	o.Begin(domain.ActivitySaving)
	off()
	o.End(domain.ActivitySaving)
	assert.Equal(t, 1, calls)
}

func TestOrchestrator_Concurrent(t *testing.T) {
	o := New()
	var mu sync.Mutex
	shows, hides := 0, 0
	o.OnActivityChanged(func(_ domain.Activity, active bool) {
		mu.Lock()
		defer mu.Unlock()
		if active {
			shows++
		} else {
			hides++
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Begin(domain.ActivitySaving)
			o.End(domain.ActivitySaving)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, o.InFlight(domain.ActivitySaving))
	assert.Equal(t, shows, hides)
	assert.GreaterOrEqual(t, shows, 1)
}

func TestOrchestrator_ListenersMayReenter(t *testing.T) {
	o := New()
	var got []transition
	var seenActive []bool
	o.OnActivityChanged(func(a domain.Activity, active bool) {
		got = append(got, transition{a, active})
		seenActive = append(seenActive, o.Active(a))
		if a == domain.ActivitySaving && active {
			o.Begin(domain.ActivityPublishing)
		}
	})
	var messages []string
	o.OnError(func(_ domain.OperationKind, message string, _ error) {
		messages = append(messages, message)
		o.End(domain.ActivityPublishing)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Begin(domain.ActivitySaving)
		o.Error(domain.OpPublish, "Could not publish item", errors.New("boom"))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "listener calling back into the orchestrator blocked")
	}

	assert.Equal(t, []transition{
		{domain.ActivitySaving, true},
		{domain.ActivityPublishing, true},
		{domain.ActivityPublishing, false},
	}, got)
	assert.Equal(t, []bool{true, true, false}, seenActive)
	assert.Equal(t, []string{"Could not publish item"}, messages)
	assert.True(t, o.Active(domain.ActivitySaving))
}
