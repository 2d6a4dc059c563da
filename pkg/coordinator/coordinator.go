package coordinator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/outline/internal/logging"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/notify"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/aretw0/outline/pkg/tree"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/oklog/ulid/v2"
)

// TreeListener receives structural changes.
type TreeListener func(change domain.TreeChange)

// AttributesListener receives the node whose attributes were replaced.
type AttributesListener func(node domain.ContentNode)

// Coordinator is the only component allowed to issue remote-mutating requests.
// It allows at most one in-flight operation per affected node; a conflicting
// gesture is rejected with domain.ErrOperationInProgress, never queued.
type Coordinator struct {
	tree      *tree.Tree
	transport ports.Transport
	paths     ports.Paths
	notifier  *notify.Orchestrator
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	now       func() time.Time

	mu      sync.Mutex        // serializes claims and tree mutations
	busy    map[string]string // node id -> operation id
	pending map[string]*domain.PendingOperation
	queue   []event
	wg      sync.WaitGroup

	emitMu    sync.Mutex
	lmu       sync.Mutex
	nextSub   int
	treeSubs  []sub[TreeListener]
	optSubs   []sub[TreeListener]
	attrSubs  map[string][]sub[AttributesListener]
	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

type sub[L any] struct {
	id int
	fn L
}

type eventKind int

const (
	eventTree eventKind = iota
	eventOptimistic
	eventAttributes
)

type event struct {
	kind   eventKind
	change domain.TreeChange
	node   domain.ContentNode
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithPaths overrides the request paths.
func WithPaths(p ports.Paths) Option {
	return func(c *Coordinator) {
		c.paths = p
	}
}

// WithNotifier shares a notification orchestrator (e.g. with the rendering layer).
func WithNotifier(n *notify.Orchestrator) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithLogger configures a logger for the Coordinator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle hooks (metrics, tracing).
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = h
	}
}

// WithClock overrides the time source used for operation events.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New creates a Coordinator mutating t through transport.
func New(t *tree.Tree, transport ports.Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		tree:      t,
		transport: transport,
		paths:     wire.DefaultPaths(),
		notifier:  notify.New(),
		logger:    logging.NewNop(),
		now:       time.Now,
		busy:      make(map[string]string),
		pending:   make(map[string]*domain.PendingOperation),
		attrSubs:  make(map[string][]sub[AttributesListener]),
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tree returns the tree the coordinator mutates. Other components must treat it as read-only.
func (c *Coordinator) Tree() *tree.Tree {
	return c.tree
}

// Notifier returns the notification orchestrator.
func (c *Coordinator) Notifier() *notify.Orchestrator {
	return c.notifier
}

// Busy reports whether id has an operation in flight.
func (c *Coordinator) Busy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[id]
	return ok
}

// Pending returns a copy of the in-flight operations.
func (c *Coordinator) Pending() []domain.PendingOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.PendingOperation, 0, len(c.pending))
	for _, p := range c.pending {
		cp := *p
		cp.AffectedParentIDs = slices.Clone(p.AffectedParentIDs)
		cp.Snapshot = make(map[string][]string, len(p.Snapshot))
		for k, v := range p.Snapshot {
			cp.Snapshot[k] = slices.Clone(v)
		}
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b domain.PendingOperation) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Drain waits until every continuation has finished or ctx is done.
func (c *Coordinator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnTreeChanged registers a listener fired after confirmed mutations and rollbacks.
func (c *Coordinator) OnTreeChanged(l TreeListener) func() {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.treeSubs = append(c.treeSubs, sub[TreeListener]{id, l})
	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		c.treeSubs = slices.DeleteFunc(c.treeSubs, func(s sub[TreeListener]) bool { return s.id == id })
	}
}

// OnOptimisticChange registers a listener fired right after an optimistic apply.
func (c *Coordinator) OnOptimisticChange(l TreeListener) func() {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.optSubs = append(c.optSubs, sub[TreeListener]{id, l})
	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		c.optSubs = slices.DeleteFunc(c.optSubs, func(s sub[TreeListener]) bool { return s.id == id })
	}
}

// OnAttributesChanged registers a listener for attribute replacements of nodeID.
func (c *Coordinator) OnAttributesChanged(nodeID string, l AttributesListener) func() {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.attrSubs[nodeID] = append(c.attrSubs[nodeID], sub[AttributesListener]{id, l})
	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		c.attrSubs[nodeID] = slices.DeleteFunc(c.attrSubs[nodeID], func(s sub[AttributesListener]) bool { return s.id == id })
		if len(c.attrSubs[nodeID]) == 0 {
			delete(c.attrSubs, nodeID)
		}
	}
}

// begin claims every id and registers the pending operation. Must be called with c.mu held.
// Either every id is claimed or none is.
func (c *Coordinator) begin(kind domain.OperationKind, target string, claims []string, snapshot map[string][]string) (*Operation, error) {
	claims = unique(claims)
	for _, id := range claims {
		if opID, ok := c.busy[id]; ok {
			c.logger.Debug("gesture rejected", "kind", kind, "node_id", id, "op", opID)
			return nil, fmt.Errorf("%w: %s", domain.ErrOperationInProgress, id)
		}
	}

	op := newOperation(c.newID(), kind, target)
	for _, id := range claims {
		c.busy[id] = op.ID
	}
	parents := make([]string, 0, len(snapshot))
	for _, id := range claims {
		if _, ok := snapshot[id]; ok {
			parents = append(parents, id)
		}
	}
	c.pending[op.ID] = &domain.PendingOperation{
		ID:                op.ID,
		Kind:              kind,
		TargetNodeID:      target,
		AffectedParentIDs: parents,
		Snapshot:          snapshot,
	}
	op.claims = claims
	op.started = c.now()
	return op, nil
}

// started reports the operation to the notifier and hooks. Must be called without c.mu.
func (c *Coordinator) started(ctx context.Context, op *Operation) {
	if a := op.Kind.Activity(); a != "" {
		c.notifier.Begin(a)
	}
	if c.hooks.OnOperationStart != nil {
		c.hooks.OnOperationStart(ctx, &domain.OperationEvent{
			Timestamp:   op.started,
			OperationID: op.ID,
			Kind:        op.Kind,
			TargetID:    op.TargetID,
		})
	}
}

// finish releases the claims, ends the activity and resolves op, in that order.
func (c *Coordinator) finish(ctx context.Context, op *Operation, err error) {
	c.mu.Lock()
	for _, id := range op.claims {
		if c.busy[id] == op.ID {
			delete(c.busy, id)
		}
	}
	delete(c.pending, op.ID)
	c.mu.Unlock()

	if a := op.Kind.Activity(); a != "" {
		if err != nil {
			c.notifier.Fail(a, op.Kind, userMessage(op.Kind, err), err)
		} else {
			c.notifier.End(a)
		}
	} else if err != nil {
		c.notifier.Error(op.Kind, userMessage(op.Kind, err), err)
	}

	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrInvariantViolation) {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "operation failed", "op", op.ID, "kind", op.Kind, "node_id", op.TargetID, "err", err)
	} else {
		c.logger.Info("operation confirmed", "op", op.ID, "kind", op.Kind, "node_id", op.TargetID)
	}

	if c.hooks.OnOperationEnd != nil {
		end := c.now()
		c.hooks.OnOperationEnd(ctx, &domain.OperationEvent{
			Timestamp:   end,
			OperationID: op.ID,
			Kind:        op.Kind,
			TargetID:    op.TargetID,
			Duration:    end.Sub(op.started),
			Err:         err,
		})
	}

	c.flush()
	op.resolve(err)
}

func (c *Coordinator) rolledBack(ctx context.Context, op *Operation, err error) {
	c.logger.Warn("rolled back", "op", op.ID, "kind", op.Kind, "node_id", op.TargetID, "err", err)
	if c.hooks.OnRollback != nil {
		c.hooks.OnRollback(ctx, &domain.OperationEvent{
			Timestamp:   c.now(),
			OperationID: op.ID,
			Kind:        op.Kind,
			TargetID:    op.TargetID,
			Err:         err,
		})
	}
}

// run executes the continuation of op without cancellation: once issued, a request is
// always followed through so rollback state stays consistent.
func (c *Coordinator) run(ctx context.Context, op *Operation, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := fn(ctx)
		c.finish(ctx, op, err)
	}()
}

func (c *Coordinator) newID() string {
	c.entropyMu.Lock()
	defer c.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(c.now()), c.entropy).String()
}

// enqueue must be called with c.mu held.
func (c *Coordinator) enqueue(ev event) {
	c.queue = append(c.queue, ev)
}

func (c *Coordinator) enqueueLocked(ev event) {
	c.mu.Lock()
	c.enqueue(ev)
	c.mu.Unlock()
}

// flush delivers queued events in order, one listener at a time, without holding c.mu.
// A listener that triggers another flush returns immediately; the outer flush picks up its events.
func (c *Coordinator) flush() {
	for {
		if !c.emitMu.TryLock() {
			return
		}
		for {
			c.mu.Lock()
			if len(c.queue) == 0 {
				c.mu.Unlock()
				break
			}
			ev := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			c.dispatch(ev)
		}
		c.emitMu.Unlock()

		c.mu.Lock()
		empty := len(c.queue) == 0
		c.mu.Unlock()
		if empty {
			return
		}
	}
}

func (c *Coordinator) dispatch(ev event) {
	c.lmu.Lock()
	var structural []sub[TreeListener]
	var attrs []sub[AttributesListener]
	switch ev.kind {
	case eventTree:
		structural = slices.Clone(c.treeSubs)
	case eventOptimistic:
		structural = slices.Clone(c.optSubs)
	case eventAttributes:
		attrs = slices.Clone(c.attrSubs[ev.node.ID])
	}
	c.lmu.Unlock()

	for _, s := range structural {
		s.fn(ev.change)
	}
	for _, s := range attrs {
		s.fn(ev.node)
	}
}

// treeEvent builds a change for parents, diffing against the given prior orders.
// Must be called with c.mu held.
func (c *Coordinator) treeEvent(kind eventKind, reason domain.ChangeReason, op *Operation, before map[string][]string, parents ...string) event {
	change := domain.TreeChange{
		Reason:    reason,
		ParentIDs: slices.Clone(parents),
		Parents:   make(map[string]*domain.ChildrenDiff),
	}
	if op != nil {
		change.OperationID = op.ID
		change.Kind = op.Kind
	}
	for _, p := range parents {
		after, err := c.tree.ChildIDs(p)
		if err != nil {
			continue
		}
		if d := domain.DiffChildren(before[p], after); d != nil {
			change.Parents[p] = d
		}
	}
	return event{kind: kind, change: change}
}

// attributeEvents queues an attributes event for each id. Must be called with c.mu held.
func (c *Coordinator) attributeEvents(ids ...string) {
	for _, id := range ids {
		n, err := c.tree.GetNode(id)
		if err != nil {
			continue
		}
		c.enqueue(event{kind: eventAttributes, node: n})
	}
}

func unique(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func userMessage(kind domain.OperationKind, err error) string {
	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return remote.UserMessage()
	}
	return kind.FailureMessage()
}
