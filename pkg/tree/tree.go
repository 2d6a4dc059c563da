package tree

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/outline/pkg/domain"
)

type node struct {
	id       string
	category domain.Category
	parentID string
	attrs    domain.NodeAttributes
	children []string
	loaded   bool
}

func (n *node) snapshot() domain.ContentNode {
	return domain.ContentNode{
		ID:             n.id,
		Category:       n.category,
		ParentID:       n.parentID,
		Attributes:     n.attrs.Clone(),
		Children:       slices.Clone(n.children),
		ChildrenLoaded: n.loaded,
	}
}

// Tree is the in-memory content hierarchy.
// It is safe for concurrent use; every read returns a copy.
type Tree struct {
	mu     sync.RWMutex
	rootID string
	nodes  map[string]*node
}

// New builds a tree from the root spec and any loaded descendants.
func New(root domain.NodeSpec) (*Tree, error) {
	if root.ID == "" {
		return nil, domain.Invariant("new", "root id is empty")
	}
	t := &Tree{
		rootID: root.ID,
		nodes:  make(map[string]*node),
	}
	if err := t.install("", root); err != nil {
		return nil, err
	}
	return t, nil
}

// RootID returns the id of the course node.
func (t *Tree) RootID() string {
	return t.rootID
}

// Len returns the number of known nodes, including detached ones.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Contains reports whether id is known.
func (t *Tree) Contains(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}

// GetNode returns a snapshot of the node.
func (t *Tree) GetNode(id string) (domain.ContentNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookup(id)
	if err != nil {
		return domain.ContentNode{}, err
	}
	return n.snapshot(), nil
}

// ChildrenOf returns the ordered children of parentID.
// It fails with domain.ErrUnloaded when the subtree has not been fetched.
func (t *Tree) ChildrenOf(parentID string) ([]domain.ContentNode, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, err := t.loadedParent(parentID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContentNode, 0, len(p.children))
	for _, id := range p.children {
		if c, ok := t.nodes[id]; ok {
			out = append(out, c.snapshot())
		}
	}
	return out, nil
}

// ChildIDs returns the ordered child ids of parentID.
func (t *Tree) ChildIDs(parentID string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, err := t.loadedParent(parentID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.children), nil
}

// IndexOf returns the position of childID under parentID, or -1.
func (t *Tree) IndexOf(parentID, childID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.nodes[parentID]
	if !ok {
		return -1
	}
	return slices.Index(p.children, childID)
}

// Ancestors returns the ids above id, nearest first.
func (t *Tree) Ancestors(id string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	var out []string
	for p := n.parentID; p != ""; {
		out = append(out, p)
		pn, ok := t.nodes[p]
		if !ok {
			break
		}
		p = pn.parentID
	}
	return out, nil
}

// Descendants returns the loaded descendants of id in pre-order.
func (t *Tree) Descendants(id string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, err := t.lookup(id); err != nil {
		return nil, err
	}
	return t.descendants(id), nil
}

// Walk visits the loaded part of the tree in pre-order starting at the root.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n domain.ContentNode, depth int) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n, ok := t.nodes[id]
		if !ok {
			return
		}
		if !fn(n.snapshot(), depth) {
			return
		}
		for _, c := range n.children {
			visit(c, depth+1)
		}
	}
	visit(t.rootID, 0)
}

// StaffLockSource returns the display name of the nearest ancestor carrying an explicit staff lock.
func (t *Tree) StaffLockSource(id string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lockSource(id)
}

// Snapshot captures the child order of each listed parent.
// Parents that are unknown or unloaded are skipped.
func (t *Tree) Snapshot(parentIDs ...string) map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string][]string, len(parentIDs))
	for _, id := range parentIDs {
		if p, ok := t.nodes[id]; ok && p.loaded {
			out[id] = slices.Clone(p.children)
		}
	}
	return out
}

// ReplaceSubtree swaps the children of parentID for the given specs and marks it loaded.
// Children whose own subtree is not part of the spec keep the descendants already held.
func (t *Tree) ReplaceSubtree(parentID string, children []domain.NodeSpec) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.lookup(parentID)
	if err != nil {
		return err
	}
	return t.replaceChildren(p, children)
}

// ReplaceNode swaps the attributes of an existing node and, when the spec is loaded, its subtree.
func (t *Tree) ReplaceNode(spec domain.NodeSpec) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(spec.ID)
	if err != nil {
		return err
	}
	if spec.Category != "" {
		n.category = spec.Category
	}
	n.attrs = spec.Attributes.Clone()
	if spec.ChildrenLoaded {
		return t.replaceChildren(n, spec.Children)
	}
	return nil
}

// SetAttributes replaces the attributes of id wholesale.
func (t *Tree) SetAttributes(id string, attrs domain.NodeAttributes) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(id)
	if err != nil {
		return err
	}
	n.attrs = attrs.Clone()
	return nil
}

// ReorderChildren sets a new order for parentID.
// The order must be a permutation of the current children.
func (t *Tree) ReorderChildren(parentID string, order []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.loadedParent(parentID)
	if err != nil {
		return err
	}
	if !isPermutation(p.children, order) {
		return domain.Invariant("reorder", "%v is not a permutation of %v", order, p.children)
	}
	p.children = slices.Clone(order)
	return nil
}

// MoveChild removes childID from fromParentID and inserts it into toParentID at index.
// For a move inside the same parent, index refers to the list without the child.
func (t *Tree) MoveChild(childID, fromParentID, toParentID string, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	child, err := t.lookup(childID)
	if err != nil {
		return err
	}
	from, err := t.loadedParent(fromParentID)
	if err != nil {
		return err
	}
	to, err := t.loadedParent(toParentID)
	if err != nil {
		return err
	}
	pos := slices.Index(from.children, childID)
	if pos < 0 {
		return domain.Invariant("move", "%s is not a child of %s", childID, fromParentID)
	}
	if to != from && slices.Contains(to.children, childID) {
		return domain.Invariant("move", "%s is already a child of %s", childID, toParentID)
	}
	limit := len(to.children)
	if to == from {
		limit--
	}
	if index < 0 || index > limit {
		return domain.Invariant("move", "index %d out of range [0,%d]", index, limit)
	}

	from.children = slices.Delete(from.children, pos, pos+1)
	to.children = slices.Insert(to.children, index, childID)
	child.parentID = toParentID
	return nil
}

// InsertChild installs a new node under parentID at index.
func (t *Tree) InsertChild(parentID string, index int, spec domain.NodeSpec) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.loadedParent(parentID)
	if err != nil {
		return err
	}
	if _, exists := t.nodes[spec.ID]; exists {
		return domain.Invariant("insert", "%s already exists", spec.ID)
	}
	if index < 0 || index > len(p.children) {
		return domain.Invariant("insert", "index %d out of range [0,%d]", index, len(p.children))
	}
	if err := t.install(parentID, spec); err != nil {
		return err
	}
	p.children = slices.Insert(p.children, index, spec.ID)
	return nil
}

// ResetChildren restores the given child orders, typically from a pending operation snapshot.
// A node listed by a restored parent is re-parented there unless its current parent still lists it.
func (t *Tree) ResetChildren(orders map[string][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range orders {
		if _, err := t.lookup(id); err != nil {
			return err
		}
	}
	for id, order := range orders {
		p := t.nodes[id]
		p.children = slices.Clone(order)
		p.loaded = true
	}
	for parentID, order := range orders {
		for _, childID := range order {
			c, ok := t.nodes[childID]
			if !ok || c.parentID == parentID {
				continue
			}
			if cur, ok := t.nodes[c.parentID]; ok && slices.Contains(cur.children, childID) {
				continue
			}
			c.parentID = parentID
		}
	}
	return nil
}

// Detach unlinks id from its parent but keeps the node and its subtree so it can be reattached.
func (t *Tree) Detach(id string) (parentID string, index int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(id)
	if err != nil {
		return "", -1, err
	}
	if n.parentID == "" {
		return "", -1, domain.Invariant("detach", "cannot detach the root")
	}
	p, ok := t.nodes[n.parentID]
	if !ok {
		return "", -1, domain.Invariant("detach", "parent %s of %s is missing", n.parentID, id)
	}
	index = slices.Index(p.children, id)
	if index < 0 {
		return "", -1, domain.Invariant("detach", "%s is not listed by %s", id, n.parentID)
	}
	p.children = slices.Delete(p.children, index, index+1)
	return n.parentID, index, nil
}

// Reattach links a detached node back at index under parentID.
func (t *Tree) Reattach(id, parentID string, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(id)
	if err != nil {
		return err
	}
	p, err := t.loadedParent(parentID)
	if err != nil {
		return err
	}
	if slices.Contains(p.children, id) {
		return nil
	}
	index = min(max(index, 0), len(p.children))
	p.children = slices.Insert(p.children, index, id)
	n.parentID = parentID
	return nil
}

// Remove drops id and its loaded subtree from the tree.
func (t *Tree) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(id)
	if err != nil {
		return err
	}
	if id == t.rootID {
		return domain.Invariant("remove", "cannot remove the root")
	}
	if p, ok := t.nodes[n.parentID]; ok {
		if i := slices.Index(p.children, id); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
	}
	t.removeSubtree(id)
	return nil
}

// PropagateStaffLock recomputes the inherited lock fields of id and its loaded descendants.
// It returns the ids whose attributes changed.
func (t *Tree) PropagateStaffLock(id string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	var changed []string
	var visit func(n *node)
	visit = func(n *node) {
		source, locked := t.lockSource(n.id)
		if n.attrs.AncestorStaffLock != locked || n.attrs.StaffLockSource != source {
			n.attrs = n.attrs.WithAncestorStaffLock(locked, source)
			changed = append(changed, n.id)
		}
		for _, c := range n.children {
			if cn, ok := t.nodes[c]; ok && cn.parentID == n.id {
				visit(cn)
			}
		}
	}
	visit(n)
	return changed, nil
}

func (t *Tree) lookup(id string) (*node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

func (t *Tree) loadedParent(id string) (*node, error) {
	n, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	if !n.loaded {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnloaded, id)
	}
	return n, nil
}

func (t *Tree) lockSource(id string) (string, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return "", false
	}
	for p := n.parentID; p != ""; {
		pn, ok := t.nodes[p]
		if !ok {
			break
		}
		if pn.attrs.ExplicitStaffLock {
			return pn.attrs.DisplayName, true
		}
		p = pn.parentID
	}
	return "", false
}

func (t *Tree) descendants(id string) []string {
	var out []string
	n := t.nodes[id]
	for _, c := range n.children {
		cn, ok := t.nodes[c]
		if !ok || cn.parentID != id {
			continue
		}
		out = append(out, c)
		out = append(out, t.descendants(c)...)
	}
	return out
}

// replaceChildren must be called with the write lock held.
func (t *Tree) replaceChildren(p *node, children []domain.NodeSpec) error {
	seen := make(map[string]bool, len(children))
	for _, c := range children {
		if c.ID == "" || seen[c.ID] || c.ID == p.id {
			return domain.Invariant("replace", "invalid or duplicate child id %q under %s", c.ID, p.id)
		}
		seen[c.ID] = true
	}

	keep := make(map[string]bool)
	for _, c := range children {
		if existing, ok := t.nodes[c.ID]; ok && !c.ChildrenLoaded && existing.parentID == p.id && existing.loaded {
			keep[c.ID] = true
		}
	}
	for _, old := range p.children {
		n, ok := t.nodes[old]
		if !ok || n.parentID != p.id {
			continue
		}
		if keep[old] {
			continue
		}
		t.removeSubtree(old)
	}

	p.children = p.children[:0]
	p.loaded = true
	for _, c := range children {
		if keep[c.ID] {
			n := t.nodes[c.ID]
			n.attrs = c.Attributes.Clone()
			if c.Category != "" {
				n.category = c.Category
			}
		} else if err := t.install(p.id, c); err != nil {
			return err
		}
		p.children = append(p.children, c.ID)
	}
	return nil
}

// install creates spec and its loaded descendants under parentID.
// A node already present elsewhere is moved here; the fetch is authoritative.
func (t *Tree) install(parentID string, spec domain.NodeSpec) error {
	if spec.ID == "" {
		return domain.Invariant("install", "empty node id under %q", parentID)
	}
	if existing, ok := t.nodes[spec.ID]; ok {
		if prev, ok := t.nodes[existing.parentID]; ok && existing.parentID != parentID {
			if i := slices.Index(prev.children, spec.ID); i >= 0 {
				prev.children = slices.Delete(prev.children, i, i+1)
			}
		}
		t.removeSubtree(spec.ID)
	}
	n := &node{
		id:       spec.ID,
		category: spec.Category,
		parentID: parentID,
		attrs:    spec.Attributes.Clone(),
		loaded:   spec.ChildrenLoaded,
	}
	t.nodes[spec.ID] = n
	if !spec.ChildrenLoaded {
		return nil
	}
	for _, c := range spec.Children {
		if err := t.install(spec.ID, c); err != nil {
			return err
		}
		n.children = append(n.children, c.ID)
	}
	return nil
}

func (t *Tree) removeSubtree(id string) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.children {
		if cn, ok := t.nodes[c]; ok && cn.parentID == id {
			t.removeSubtree(c)
		}
	}
	delete(t.nodes, id)
}

func isPermutation(current, order []string) bool {
	if len(current) != len(order) {
		return false
	}
	counts := make(map[string]int, len(current))
	for _, id := range current {
		counts[id]++
	}
	for _, id := range order {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}
