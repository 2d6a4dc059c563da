package coordinator

import (
	"context"
	"net/http"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/aretw0/outline/pkg/wire"
)

// CreateIntent describes a node to create. Category defaults to the level below the parent
// and DisplayName to the category's default name.
type CreateIntent struct {
	ParentID    string
	Category    domain.Category
	DisplayName string
	Boilerplate string
}

// GatingSettings is the prerequisite configuration of a subsection.
type GatingSettings struct {
	IsPrerequisite bool
	PrerequisiteID string
	MinScore       string
	MinCompletion  string
}

// Duplicate asks the authority to copy id next to itself. Nothing is applied optimistically
// because the new id is assigned remotely; on success the parent is re-fetched.
func (c *Coordinator) Duplicate(ctx context.Context, id string) (*Operation, error) {
	c.mu.Lock()
	n, err := c.tree.GetNode(id)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if n.ParentID == "" {
		c.mu.Unlock()
		return nil, domain.Invariant("duplicate", "cannot duplicate the root")
	}
	op, err := c.begin(domain.OpDuplicate, id, c.subtreeClaims(n.ParentID), nil)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.started(ctx, op)

	body := wire.CreateRequest{ParentLocator: n.ParentID, DuplicateSourceLocator: id}
	c.run(ctx, op, func(ctx context.Context) error {
		return c.createAndRefresh(ctx, op, n.ParentID, body)
	})
	return op, nil
}

// Create asks the authority for a new child of in.ParentID, then re-fetches the parent.
func (c *Coordinator) Create(ctx context.Context, in CreateIntent) (*Operation, error) {
	c.mu.Lock()
	p, err := c.tree.GetNode(in.ParentID)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	category := in.Category
	if category == "" {
		next, ok := p.Category.ChildCategory()
		if !ok {
			c.mu.Unlock()
			return nil, domain.Invariant("create", "%s cannot have children", p.Category)
		}
		category = next
	}
	if !p.Category.CanContain(category) {
		c.mu.Unlock()
		return nil, domain.Invariant("create", "%s cannot contain %s", p.Category, category)
	}
	op, err := c.begin(domain.OpCreate, in.ParentID, c.subtreeClaims(in.ParentID), nil)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.started(ctx, op)

	name := in.DisplayName
	if name == "" {
		name = category.DefaultDisplayName()
	}
	body := wire.CreateRequest{
		ParentLocator: in.ParentID,
		Category:      string(category),
		DisplayName:   name,
		Boilerplate:   in.Boilerplate,
	}
	c.run(ctx, op, func(ctx context.Context) error {
		return c.createAndRefresh(ctx, op, in.ParentID, body)
	})
	return op, nil
}

func (c *Coordinator) createAndRefresh(ctx context.Context, op *Operation, parentID string, body wire.CreateRequest) error {
	req := ports.Request{Method: http.MethodPost, Path: c.paths.Collection, Body: body}
	resp, err := c.send(ctx, op, domain.StagePrimary, req)
	if err != nil {
		return err
	}
	created, err := decode(op, domain.StagePrimary, req, resp, decodeJSON[wire.CreateResponse])
	if err != nil {
		return err
	}
	op.setNodeID(created.Locator)
	// The node exists remotely from here on; a failed refresh is reported but never rolled back.
	return c.refresh(ctx, op, parentID, domain.ReasonConfirmed)
}

// Publish makes the node and its descendants public, then re-fetches them.
func (c *Coordinator) Publish(ctx context.Context, id string) (*Operation, error) {
	return c.patchAttributes(ctx, domain.OpPublish, id, func(domain.ContentNode) (wire.PatchRequest, bool) {
		return wire.PublishPatch(wire.PublishMakePublic), true
	})
}

// DiscardChanges reverts unpublished changes, then re-fetches the node.
func (c *Coordinator) DiscardChanges(ctx context.Context, id string) (*Operation, error) {
	return c.patchAttributes(ctx, domain.OpDiscardChanges, id, func(domain.ContentNode) (wire.PatchRequest, bool) {
		return wire.PublishPatch(wire.PublishDiscardChanges), true
	})
}

// ToggleStaffLock flips the explicit staff lock of id.
func (c *Coordinator) ToggleStaffLock(ctx context.Context, id string) (*Operation, error) {
	return c.patchAttributes(ctx, domain.OpToggleStaffLock, id, func(n domain.ContentNode) (wire.PatchRequest, bool) {
		return wire.StaffLockPatch(!n.Attributes.ExplicitStaffLock), true
	})
}

// SetStaffLock sets the explicit staff lock of id. Setting the current value is a no-op.
func (c *Coordinator) SetStaffLock(ctx context.Context, id string, locked bool) (*Operation, error) {
	return c.patchAttributes(ctx, domain.OpToggleStaffLock, id, func(n domain.ContentNode) (wire.PatchRequest, bool) {
		return wire.StaffLockPatch(locked), n.Attributes.ExplicitStaffLock != locked
	})
}

// Configure saves the prerequisite settings of a subsection.
// Callers validate the thresholds before calling.
func (c *Coordinator) Configure(ctx context.Context, id string, s GatingSettings) (*Operation, error) {
	return c.patchAttributes(ctx, domain.OpConfigure, id, func(domain.ContentNode) (wire.PatchRequest, bool) {
		return wire.PatchRequest{
			IsPrereq:            &s.IsPrerequisite,
			PrereqUsageKey:      &s.PrerequisiteID,
			PrereqMinScore:      &s.MinScore,
			PrereqMinCompletion: &s.MinCompletion,
		}, true
	})
}

// patchAttributes sends a single attribute request. Nothing is applied before the response;
// on success the node and its loaded descendants are re-fetched.
func (c *Coordinator) patchAttributes(ctx context.Context, kind domain.OperationKind, id string, build func(domain.ContentNode) (wire.PatchRequest, bool)) (*Operation, error) {
	c.mu.Lock()
	n, err := c.tree.GetNode(id)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	body, changed := build(n)
	if !changed {
		c.mu.Unlock()
		return completed(kind, id), nil
	}
	op, err := c.begin(kind, id, c.subtreeClaims(id), nil)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.started(ctx, op)

	c.run(ctx, op, func(ctx context.Context) error {
		req := ports.Request{Method: http.MethodPatch, Path: c.paths.Node(id), Body: body}
		if _, err := c.send(ctx, op, domain.StagePrimary, req); err != nil {
			return err
		}
		return c.refresh(ctx, op, id, domain.ReasonRefresh)
	})
	return op, nil
}

// Rename applies the new display name immediately and restores the previous one on failure.
// After success the node is re-fetched in the background; the rename is not reverted meanwhile.
func (c *Coordinator) Rename(ctx context.Context, id, name string) (*Operation, error) {
	c.mu.Lock()
	n, err := c.tree.GetNode(id)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	prev := n.Attributes.DisplayName
	if prev == name {
		c.mu.Unlock()
		return completed(domain.OpRename, id), nil
	}
	op, err := c.begin(domain.OpRename, id, []string{id}, nil)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if err := c.tree.SetAttributes(id, n.Attributes.WithDisplayName(name)); err != nil {
		c.release(op)
		c.mu.Unlock()
		return nil, err
	}
	c.attributeEvents(id)
	c.mu.Unlock()

	c.started(ctx, op)
	c.flush()

	c.run(ctx, op, func(ctx context.Context) error {
		req := ports.Request{Method: http.MethodPatch, Path: c.paths.Node(id), Body: wire.RenamePatch(name)}
		if _, err := c.send(ctx, op, domain.StagePrimary, req); err != nil {
			c.mu.Lock()
			if cur, gerr := c.tree.GetNode(id); gerr == nil {
				if rerr := c.tree.SetAttributes(id, cur.Attributes.WithDisplayName(prev)); rerr != nil {
					c.logger.Error("rename rollback failed", "op", op.ID, "node_id", id, "err", rerr)
				} else {
					c.attributeEvents(id)
				}
			}
			c.mu.Unlock()
			c.rolledBack(ctx, op, err)
			return err
		}
		c.refetchInBackground(ctx, op, id)
		return nil
	})
	return op, nil
}

// refetchInBackground replaces the attributes of id with a fresh copy unless another
// operation claimed the node in the meantime. Failures are only logged.
func (c *Coordinator) refetchInBackground(ctx context.Context, op *Operation, id string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		req := ports.Request{Method: http.MethodGet, Path: c.paths.Node(id)}
		resp, err := c.send(ctx, op, domain.StageRefresh, req)
		if err != nil {
			c.logger.Debug("background refetch failed", "op", op.ID, "node_id", id, "err", err)
			return
		}
		info, err := decode(op, domain.StageRefresh, req, resp, wire.DecodeXBlockInfo)
		if err != nil {
			c.logger.Debug("background refetch failed", "op", op.ID, "node_id", id, "err", err)
			return
		}
		c.mu.Lock()
		if owner, busy := c.busy[id]; busy && owner != op.ID {
			c.mu.Unlock()
			return
		}
		if err := c.tree.SetAttributes(id, info.Attributes()); err == nil {
			c.attributeEvents(id)
		}
		c.mu.Unlock()
		c.flush()
	}()
}

// Load fetches the outline of id and installs it, marking its children loaded.
func (c *Coordinator) Load(ctx context.Context, id string) (*Operation, error) {
	c.mu.Lock()
	if _, err := c.tree.GetNode(id); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	op, err := c.begin(domain.OpLoad, id, c.subtreeClaims(id), nil)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.started(ctx, op)

	c.run(ctx, op, func(ctx context.Context) error {
		return c.refresh(ctx, op, id, domain.ReasonRefresh)
	})
	return op, nil
}

// subtreeClaims returns id and its loaded descendants: everything a refresh of id may overwrite.
// Must be called with c.mu held.
func (c *Coordinator) subtreeClaims(id string) []string {
	desc, err := c.tree.Descendants(id)
	if err != nil {
		return []string{id}
	}
	return append([]string{id}, desc...)
}

// refresh replaces id (and its subtree when included) with the authority's outline.
// The caller holds claims on the whole loaded subtree, so no pending order is overwritten.
func (c *Coordinator) refresh(ctx context.Context, op *Operation, id string, reason domain.ChangeReason) error {
	req := ports.Request{Method: http.MethodGet, Path: c.paths.Outline(id)}
	resp, err := c.send(ctx, op, domain.StageRefresh, req)
	if err != nil {
		return err
	}
	info, err := decode(op, domain.StageRefresh, req, resp, wire.DecodeXBlockInfo)
	if err != nil {
		return err
	}
	if info.ID != id {
		return domain.Invariant("refresh", "requested %s, got %s", id, info.ID)
	}
	spec := info.Spec()

	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.tree.Snapshot(id)
	if err := c.tree.ReplaceNode(spec); err != nil {
		return err
	}
	if _, err := c.tree.PropagateStaffLock(id); err != nil {
		return err
	}
	if spec.ChildrenLoaded {
		c.enqueue(c.treeEvent(eventTree, reason, op, before, id))
	}
	desc, _ := c.tree.Descendants(id)
	c.attributeEvents(append([]string{id}, desc...)...)
	return nil
}
