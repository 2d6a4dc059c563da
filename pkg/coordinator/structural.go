package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/aretw0/outline/pkg/wire"
)

// MoveIntent is a resolved drag gesture: put ChildID at Index among the children of ToParentID.
// For a move inside one parent, Index is the position in the list without the child.
type MoveIntent struct {
	ChildID      string
	FromParentID string
	ToParentID   string
	Index        int
}

// Move reorders a child inside its parent or moves it to another parent.
// The destination order is sent first; the source order is only sent once the
// destination is confirmed. If the destination fails both parents are rolled back;
// if only the source fails, the destination keeps the child and the source is
// restored to its last confirmed order.
func (c *Coordinator) Move(ctx context.Context, in MoveIntent) (*Operation, error) {
	c.mu.Lock()
	child, err := c.tree.GetNode(in.ChildID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if child.ParentID != in.FromParentID {
		c.mu.Unlock()
		return nil, domain.Invariant("move", "%s is not a child of %s", in.ChildID, in.FromParentID)
	}
	fromOrder, err := c.tree.ChildIDs(in.FromParentID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	toOrder, err := c.tree.ChildIDs(in.ToParentID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	same := in.FromParentID == in.ToParentID
	if !same {
		to, err := c.tree.GetNode(in.ToParentID)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		if !to.Category.CanContain(child.Category) {
			c.mu.Unlock()
			return nil, domain.Invariant("move", "%s cannot contain %s", to.Category, child.Category)
		}
	}

	newFrom := slices.DeleteFunc(slices.Clone(fromOrder), func(id string) bool { return id == in.ChildID })
	base := toOrder
	if same {
		base = newFrom
	}
	if in.Index < 0 || in.Index > len(base) {
		c.mu.Unlock()
		return nil, domain.Invariant("move", "index %d out of range [0,%d]", in.Index, len(base))
	}
	newTo := slices.Insert(slices.Clone(base), in.Index, in.ChildID)
	if same && slices.Equal(newTo, fromOrder) {
		c.mu.Unlock()
		return completed(domain.OpMove, in.ChildID), nil
	}

	kind := domain.OpMove
	if same {
		kind = domain.OpReorder
	}
	snapshot := map[string][]string{in.FromParentID: fromOrder}
	if !same {
		snapshot[in.ToParentID] = toOrder
	}
	op, err := c.begin(kind, in.ChildID, []string{in.ChildID, in.ToParentID, in.FromParentID}, snapshot)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if err := c.tree.MoveChild(in.ChildID, in.FromParentID, in.ToParentID, in.Index); err != nil {
		c.release(op)
		c.mu.Unlock()
		return nil, err
	}
	parents := []string{in.ToParentID}
	if !same {
		parents = append(parents, in.FromParentID)
	}
	c.enqueue(c.treeEvent(eventOptimistic, domain.ReasonOptimistic, op, snapshot, parents...))
	c.mu.Unlock()

	c.logger.Debug("optimistic move", "op", op.ID, "node_id", in.ChildID, "parent_id", in.ToParentID, "index", in.Index)
	c.started(ctx, op)
	c.flush()

	c.run(ctx, op, func(ctx context.Context) error {
		if _, err := c.patchChildren(ctx, op, domain.StagePrimary, in.ToParentID, newTo); err != nil {
			c.restore(ctx, op, snapshot, err, parents...)
			return err
		}
		if same {
			c.confirm(op, snapshot, parents...)
			return nil
		}
		if _, err := c.patchChildren(ctx, op, domain.StageSource, in.FromParentID, newFrom); err != nil {
			c.confirm(op, snapshot, in.ToParentID)
			c.restore(ctx, op, map[string][]string{in.FromParentID: fromOrder}, err, in.FromParentID)
			return err
		}
		c.confirm(op, snapshot, parents...)
		return nil
	})
	return op, nil
}

// Reorder sets a new child order for parentID. The order must be a permutation of the current children.
func (c *Coordinator) Reorder(ctx context.Context, parentID string, order []string) (*Operation, error) {
	c.mu.Lock()
	current, err := c.tree.ChildIDs(parentID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if slices.Equal(current, order) {
		c.mu.Unlock()
		return completed(domain.OpReorder, parentID), nil
	}
	snapshot := map[string][]string{parentID: current}
	op, err := c.begin(domain.OpReorder, parentID, []string{parentID}, snapshot)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if err := c.tree.ReorderChildren(parentID, order); err != nil {
		c.release(op)
		c.mu.Unlock()
		c.logger.Error("reorder rejected", "node_id", parentID, "err", err)
		return nil, err
	}
	c.enqueue(c.treeEvent(eventOptimistic, domain.ReasonOptimistic, op, snapshot, parentID))
	c.mu.Unlock()

	c.started(ctx, op)
	c.flush()

	order = slices.Clone(order)
	c.run(ctx, op, func(ctx context.Context) error {
		if _, err := c.patchChildren(ctx, op, domain.StagePrimary, parentID, order); err != nil {
			c.restore(ctx, op, snapshot, err, parentID)
			return err
		}
		c.confirm(op, snapshot, parentID)
		return nil
	})
	return op, nil
}

// Delete removes a node optimistically and re-inserts it, attributes intact, if the request fails.
func (c *Coordinator) Delete(ctx context.Context, id string) (*Operation, error) {
	c.mu.Lock()
	n, err := c.tree.GetNode(id)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if n.ParentID == "" {
		c.mu.Unlock()
		return nil, domain.Invariant("delete", "cannot delete the root")
	}
	if err := c.checkSubtreeIdle(id); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	before, err := c.tree.ChildIDs(n.ParentID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	snapshot := map[string][]string{n.ParentID: before}
	op, err := c.begin(domain.OpDelete, id, []string{id, n.ParentID}, snapshot)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	parentID, index, err := c.tree.Detach(id)
	if err != nil {
		c.release(op)
		c.mu.Unlock()
		return nil, err
	}
	c.enqueue(c.treeEvent(eventOptimistic, domain.ReasonOptimistic, op, snapshot, parentID))
	c.mu.Unlock()

	c.started(ctx, op)
	c.flush()

	c.run(ctx, op, func(ctx context.Context) error {
		req := ports.Request{Method: http.MethodDelete, Path: c.paths.Node(id)}
		if _, err := c.send(ctx, op, domain.StagePrimary, req); err != nil {
			c.mu.Lock()
			optimistic := c.tree.Snapshot(parentID)
			if rerr := c.tree.Reattach(id, parentID, index); rerr != nil {
				c.logger.Error("reattach failed", "op", op.ID, "node_id", id, "err", rerr)
			}
			c.enqueue(c.treeEvent(eventTree, domain.ReasonRollback, op, optimistic, parentID))
			c.mu.Unlock()
			c.rolledBack(ctx, op, err)
			return err
		}
		c.mu.Lock()
		if err := c.tree.Remove(id); err != nil {
			c.logger.Debug("remove after delete", "op", op.ID, "node_id", id, "err", err)
		}
		c.enqueue(c.treeEvent(eventTree, domain.ReasonConfirmed, op, snapshot, parentID))
		c.mu.Unlock()
		return nil
	})
	return op, nil
}

// checkSubtreeIdle rejects when any loaded descendant of id is busy. Must be called with c.mu held.
func (c *Coordinator) checkSubtreeIdle(id string) error {
	desc, err := c.tree.Descendants(id)
	if err != nil {
		return err
	}
	for _, d := range desc {
		if _, ok := c.busy[d]; ok {
			return fmt.Errorf("%w: %s", domain.ErrOperationInProgress, d)
		}
	}
	return nil
}

// release drops the claims of an operation that never started. Must be called with c.mu held.
func (c *Coordinator) release(op *Operation) {
	for _, id := range op.claims {
		if c.busy[id] == op.ID {
			delete(c.busy, id)
		}
	}
	delete(c.pending, op.ID)
}

// restore resets the given parents to their snapshot and reports a rollback.
func (c *Coordinator) restore(ctx context.Context, op *Operation, snapshot map[string][]string, cause error, parents ...string) {
	c.mu.Lock()
	before := c.tree.Snapshot(parents...)
	if err := c.tree.ResetChildren(snapshot); err != nil {
		c.logger.Error("rollback failed", "op", op.ID, "err", err)
	}
	c.enqueue(c.treeEvent(eventTree, domain.ReasonRollback, op, before, parents...))
	c.mu.Unlock()
	c.rolledBack(ctx, op, cause)
}

// confirm reports the current order of parents as confirmed.
func (c *Coordinator) confirm(op *Operation, snapshot map[string][]string, parents ...string) {
	c.mu.Lock()
	c.enqueue(c.treeEvent(eventTree, domain.ReasonConfirmed, op, snapshot, parents...))
	c.mu.Unlock()
}

func (c *Coordinator) patchChildren(ctx context.Context, op *Operation, stage domain.Stage, parentID string, order []string) (*ports.Response, error) {
	c.logger.Debug("sending children", "op", op.ID, "parent_id", parentID, "stage", stage)
	return c.send(ctx, op, stage, ports.Request{
		Method: http.MethodPatch,
		Path:   c.paths.Node(parentID),
		Body:   wire.NewChildrenPatch(order),
	})
}

// send issues req and converts failures into *domain.RemoteError.
func (c *Coordinator) send(ctx context.Context, op *Operation, stage domain.Stage, req ports.Request) (*ports.Response, error) {
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, &domain.RemoteError{
			Kind:   op.Kind,
			Stage:  stage,
			Method: req.Method,
			Path:   req.Path,
			Err:    domain.ErrTransportFailure,
			Cause:  err,
		}
	}
	if !resp.OK() {
		return resp, &domain.RemoteError{
			Kind:    op.Kind,
			Stage:   stage,
			Method:  req.Method,
			Path:    req.Path,
			Status:  resp.Status,
			Message: wire.ErrorMessage(resp.Body),
			Err:     domain.ErrRemoteRejected,
		}
	}
	return resp, nil
}

// decode parses a 2xx body; a malformed body is reported as a rejection.
func decode[T any](op *Operation, stage domain.Stage, req ports.Request, resp *ports.Response, fn func([]byte) (T, error)) (T, error) {
	v, err := fn(resp.Body)
	if err != nil {
		var zero T
		return zero, &domain.RemoteError{
			Kind:   op.Kind,
			Stage:  stage,
			Method: req.Method,
			Path:   req.Path,
			Status: resp.Status,
			Err:    domain.ErrRemoteRejected,
			Cause:  err,
		}
	}
	return v, nil
}

func decodeJSON[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}
