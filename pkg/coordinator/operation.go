package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/outline/pkg/domain"
)

// Operation is the future of a committed gesture.
type Operation struct {
	ID       string
	Kind     domain.OperationKind
	TargetID string

	claims  []string
	started time.Time

	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	err    error
	nodeID string
}

func newOperation(id string, kind domain.OperationKind, target string) *Operation {
	return &Operation{
		ID:       id,
		Kind:     kind,
		TargetID: target,
		done:     make(chan struct{}),
	}
}

// completed returns an operation that already succeeded without issuing any request.
func completed(kind domain.OperationKind, target string) *Operation {
	op := newOperation("", kind, target)
	op.resolve(nil)
	return op
}

// Done is closed once every request of the operation has been processed.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation finishes or ctx is done.
// Cancelling ctx does not cancel the operation.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the terminal error, nil while in flight or on success.
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// NodeID returns the id assigned by the authority to a created or duplicated node.
func (o *Operation) NodeID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nodeID
}

func (o *Operation) setNodeID(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nodeID = id
}

func (o *Operation) resolve(err error) {
	o.once.Do(func() {
		o.mu.Lock()
		o.err = err
		o.mu.Unlock()
		close(o.done)
	})
}
