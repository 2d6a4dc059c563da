package authority

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/gating"
	"github.com/aretw0/outline/pkg/wire"
)

// Update applies a patch to id and returns the node as rendered afterwards.
// Children are applied first, then metadata and gating, then the publish action.
func (s *Service) Update(ctx context.Context, id string, p wire.PatchRequest) (wire.XBlockInfo, error) {
	root, err := s.rootOf(ctx, id)
	if err != nil {
		return wire.XBlockInfo{}, err
	}
	err = s.withLock(ctx, root, func(ctx context.Context) error {
		if p.Children != nil {
			if err := s.setChildren(ctx, root, id, *p.Children); err != nil {
				return err
			}
		}
		n, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		dirty := false
		if len(p.Metadata) > 0 {
			if err := applyMetadata(&n.Attributes, p.Metadata); err != nil {
				return err
			}
			dirty = true
		}
		if p.IsPrereq != nil || p.PrereqUsageKey != nil || p.PrereqMinScore != nil || p.PrereqMinCompletion != nil {
			if err := s.applyGating(ctx, root, &n, p); err != nil {
				return err
			}
			dirty = true
		}
		if dirty {
			if err := s.save(ctx, n); err != nil {
				return err
			}
		}
		return s.applyPublish(ctx, id, p.Publish)
	})
	if err != nil {
		return wire.XBlockInfo{}, err
	}
	s.logger.Debug("node updated", "course_id", root, "node_id", id)
	s.notify(Change{CourseID: root, NodeID: id, Action: ActionUpdated})
	return s.Node(ctx, id)
}

// setChildren replaces the child order of parentID. Children taken from another parent are
// removed from it. A child may only leave the list once another parent has adopted it.
func (s *Service) setChildren(ctx context.Context, root, parentID string, order []string) error {
	parent, err := s.store.Get(ctx, parentID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(order))
	var adopted []domain.StoredNode
	for _, cid := range order {
		if seen[cid] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalid, cid)
		}
		seen[cid] = true
		if cid == parentID {
			return fmt.Errorf("%w: %s cannot contain itself", ErrInvalid, cid)
		}
		c, err := s.store.Get(ctx, cid)
		if err != nil {
			return fmt.Errorf("%w: unknown child %s", ErrInvalid, cid)
		}
		if !parent.Category.CanContain(c.Category) {
			return fmt.Errorf("%w: %s cannot contain %s", ErrInvalid, parent.Category, c.Category)
		}
		if c.ParentID == parentID {
			continue
		}
		if r, err := s.rootOf(ctx, cid); err != nil || r != root {
			return fmt.Errorf("%w: %s belongs to another course", ErrInvalid, cid)
		}
		adopted = append(adopted, c)
	}
	for _, cid := range parent.Children {
		if seen[cid] {
			continue
		}
		c, err := s.store.Get(ctx, cid)
		if err != nil {
			continue
		}
		if c.ParentID == parentID {
			return fmt.Errorf("%w: removing %s would orphan it", ErrInvalid, cid)
		}
	}

	for _, c := range adopted {
		old, err := s.store.Get(ctx, c.ParentID)
		if err == nil {
			old.Children = without(old.Children, c.ID)
			markChanged(&old.Attributes)
			if err := s.save(ctx, old); err != nil {
				return err
			}
		}
		c.ParentID = parentID
		if err := s.save(ctx, c); err != nil {
			return err
		}
	}
	if slices.Equal(parent.Children, order) {
		return nil
	}
	parent.Children = slices.Clone(order)
	if parent.Children == nil {
		parent.Children = []string{}
	}
	markChanged(&parent.Attributes)
	return s.save(ctx, parent)
}

func applyMetadata(a *domain.NodeAttributes, meta wire.Metadata) error {
	for key, v := range meta {
		switch key {
		case wire.MetaDisplayName:
			name, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string", ErrInvalid, key)
			}
			a.DisplayName = name
			markChanged(a)
		case wire.MetaVisibleToStaffOnly:
			switch lock := v.(type) {
			case nil:
				a.ExplicitStaffLock = false
			case bool:
				a.ExplicitStaffLock = lock
			default:
				return fmt.Errorf("%w: %s must be true or null", ErrInvalid, key)
			}
		case wire.MetaStart, wire.MetaDue:
			t, err := parseDate(key, v)
			if err != nil {
				return err
			}
			if key == wire.MetaStart {
				a.ReleaseDate = t
			} else {
				a.DueDate = t
			}
			markChanged(a)
		case wire.MetaHighlights:
			highlights, err := parseHighlights(v)
			if err != nil {
				return err
			}
			a.Highlights = highlights
			markChanged(a)
		default:
			return fmt.Errorf("%w: unknown metadata %q", ErrInvalid, key)
		}
	}
	return nil
}

func parseDate(key string, v any) (*time.Time, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case string:
		if d == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a date", ErrInvalid, key)
	}
}

func parseHighlights(v any) ([]string, error) {
	var out []string
	switch list := v.(type) {
	case nil:
	case []string:
		out = slices.Clone(list)
	case []any:
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: highlights must be strings", ErrInvalid)
			}
			out = append(out, s)
		}
	default:
		return nil, fmt.Errorf("%w: highlights must be a list", ErrInvalid)
	}
	if len(out) > domain.MaxHighlights {
		return nil, fmt.Errorf("%w: at most %d highlights", ErrInvalid, domain.MaxHighlights)
	}
	return out, nil
}

func (s *Service) applyGating(ctx context.Context, root string, n *domain.StoredNode, p wire.PatchRequest) error {
	if n.Category != domain.CategorySequential {
		return fmt.Errorf("%w: only subsections can be gated", ErrInvalid)
	}
	a := &n.Attributes
	if p.IsPrereq != nil {
		a.IsPrerequisite = *p.IsPrereq
	}
	if p.PrereqUsageKey != nil {
		key := *p.PrereqUsageKey
		if key != "" {
			if key == n.ID {
				return fmt.Errorf("%w: a subsection cannot require itself", ErrInvalid)
			}
			target, err := s.store.Get(ctx, key)
			if err != nil || target.Category != domain.CategorySequential || !target.Attributes.IsPrerequisite {
				return fmt.Errorf("%w: %s is not a prerequisite", ErrInvalid, key)
			}
			if r, err := s.rootOf(ctx, key); err != nil || r != root {
				return fmt.Errorf("%w: %s belongs to another course", ErrInvalid, key)
			}
		}
		a.SelectedPrerequisiteID = key
		if key == "" {
			a.PrerequisiteMinScore = ""
			a.PrerequisiteMinCompletion = ""
		}
	}
	if a.SelectedPrerequisiteID == "" {
		return nil
	}
	for _, f := range []struct {
		name string
		in   *string
		out  *string
	}{
		{gating.FieldMinScore, p.PrereqMinScore, &a.PrerequisiteMinScore},
		{gating.FieldMinCompletion, p.PrereqMinCompletion, &a.PrerequisiteMinCompletion},
	} {
		if f.in == nil {
			continue
		}
		if r := gating.ValidateThreshold(*f.in); r != gating.ReasonNone {
			return fmt.Errorf("%w: %s: %s", ErrInvalid, f.name, r.Message())
		}
		*f.out = strings.TrimSpace(*f.in)
	}
	return nil
}

func (s *Service) applyPublish(ctx context.Context, id, action string) error {
	var apply func(*domain.NodeAttributes)
	switch action {
	case "", wire.PublishRepublish:
		return nil
	case wire.PublishMakePublic:
		apply = func(a *domain.NodeAttributes) {
			a.Published = true
			a.HasChanges = false
		}
	case wire.PublishDiscardChanges:
		apply = func(a *domain.NodeAttributes) {
			a.HasChanges = false
		}
	default:
		return fmt.Errorf("%w: unknown publish action %q", ErrInvalid, action)
	}
	var nodes []domain.StoredNode
	if err := s.walk(ctx, id, func(n domain.StoredNode) { nodes = append(nodes, n) }); err != nil {
		return err
	}
	for i := range nodes {
		apply(&nodes[i].Attributes)
	}
	return s.save(ctx, nodes...)
}

// Create adds a new node at the end of its parent, or duplicates a node when
// DuplicateSourceLocator is set.
func (s *Service) Create(ctx context.Context, req wire.CreateRequest) (wire.CreateResponse, error) {
	if req.ParentLocator == "" {
		return wire.CreateResponse{}, fmt.Errorf("%w: parent_locator is required", ErrInvalid)
	}
	root, err := s.rootOf(ctx, req.ParentLocator)
	if err != nil {
		return wire.CreateResponse{}, err
	}
	var id string
	err = s.withLock(ctx, root, func(ctx context.Context) error {
		parent, err := s.store.Get(ctx, req.ParentLocator)
		if err != nil {
			return err
		}
		if req.DuplicateSourceLocator != "" {
			id, err = s.duplicate(ctx, root, parent, req.DuplicateSourceLocator)
			return err
		}
		id, err = s.create(ctx, parent, req)
		return err
	})
	if err != nil {
		return wire.CreateResponse{}, err
	}
	s.logger.Info("node created", "course_id", root, "node_id", id, "parent_id", req.ParentLocator)
	s.notify(Change{CourseID: root, NodeID: id, Action: ActionCreated})
	return wire.CreateResponse{Locator: id, CourseKey: root}, nil
}

func (s *Service) create(ctx context.Context, parent domain.StoredNode, req wire.CreateRequest) (string, error) {
	category := domain.Category(req.Category)
	if category == "" {
		next, ok := parent.Category.ChildCategory()
		if !ok {
			return "", fmt.Errorf("%w: %s cannot have children", ErrInvalid, parent.Category)
		}
		category = next
	}
	if !parent.Category.CanContain(category) {
		return "", fmt.Errorf("%w: %s cannot contain %s", ErrInvalid, parent.Category, category)
	}
	name := req.DisplayName
	if name == "" {
		name = category.DefaultDisplayName()
	}
	id, err := s.newID(category)
	if err != nil {
		return "", err
	}
	if req.Boilerplate != "" {
		s.logger.Debug("boilerplate ignored", "node_id", id, "boilerplate", req.Boilerplate)
	}
	node := domain.StoredNode{
		ID:         id,
		Category:   category,
		ParentID:   parent.ID,
		Children:   []string{},
		Attributes: domain.NodeAttributes{DisplayName: name},
	}
	parent.Children = append(parent.Children, id)
	markChanged(&parent.Attributes)
	return id, s.save(ctx, node, parent)
}

func (s *Service) duplicate(ctx context.Context, root string, parent domain.StoredNode, sourceID string) (string, error) {
	src, err := s.store.Get(ctx, sourceID)
	if err != nil {
		return "", fmt.Errorf("%w: unknown source %s", ErrInvalid, sourceID)
	}
	if src.ParentID == "" {
		return "", fmt.Errorf("%w: cannot duplicate the root", ErrInvalid)
	}
	if !parent.Category.CanContain(src.Category) {
		return "", fmt.Errorf("%w: %s cannot contain %s", ErrInvalid, parent.Category, src.Category)
	}
	if r, err := s.rootOf(ctx, sourceID); err != nil || r != root {
		return "", fmt.Errorf("%w: %s belongs to another course", ErrInvalid, sourceID)
	}
	id, err := s.copyTree(ctx, src, parent.ID, 0)
	if err != nil {
		return "", err
	}
	if i := slices.Index(parent.Children, sourceID); i >= 0 {
		parent.Children = slices.Insert(parent.Children, i+1, id)
	} else {
		parent.Children = append(parent.Children, id)
	}
	markChanged(&parent.Attributes)
	return id, s.save(ctx, parent)
}

// copyTree stores an unpublished copy of src and its descendants under parentID.
func (s *Service) copyTree(ctx context.Context, src domain.StoredNode, parentID string, depth int) (string, error) {
	if depth > maxDepth {
		return "", domain.Invariant("duplicate", "subtree of %s is too deep", src.ID)
	}
	id, err := s.newID(src.Category)
	if err != nil {
		return "", err
	}
	attrs := src.Attributes.Clone()
	attrs.Published = false
	attrs.HasChanges = false
	attrs.IsPrerequisite = false
	if depth == 0 {
		attrs.DisplayName = fmt.Sprintf("Duplicate of '%s'", src.Attributes.DisplayName)
	}
	node := domain.StoredNode{ID: id, Category: src.Category, ParentID: parentID, Children: []string{}, Attributes: attrs}
	for _, cid := range src.Children {
		c, err := s.store.Get(ctx, cid)
		if err != nil {
			return "", fmt.Errorf("child %s of %s: %w", cid, src.ID, err)
		}
		nid, err := s.copyTree(ctx, c, id, depth+1)
		if err != nil {
			return "", err
		}
		node.Children = append(node.Children, nid)
	}
	return id, s.save(ctx, node)
}

// Delete removes id and all of its descendants.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.ParentID == "" {
		return fmt.Errorf("%w: cannot delete the root", ErrInvalid)
	}
	root, err := s.rootOf(ctx, id)
	if err != nil {
		return err
	}
	err = s.withLock(ctx, root, func(ctx context.Context) error {
		n, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		parent, err := s.store.Get(ctx, n.ParentID)
		if err != nil {
			return err
		}
		var ids []string
		if err := s.walk(ctx, id, func(d domain.StoredNode) { ids = append(ids, d.ID) }); err != nil {
			return err
		}
		parent.Children = without(parent.Children, id)
		markChanged(&parent.Attributes)
		if err := s.save(ctx, parent); err != nil {
			return err
		}
		for i := len(ids) - 1; i >= 0; i-- {
			if err := s.store.Delete(ctx, ids[i]); err != nil {
				return fmt.Errorf("failed to delete %s: %w", ids[i], err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("node deleted", "course_id", root, "node_id", id)
	s.notify(Change{CourseID: root, NodeID: id, Action: ActionDeleted})
	return nil
}
