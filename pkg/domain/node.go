package domain

import (
	"slices"
	"time"
)

// Category is the level of a node in the content hierarchy.
type Category string

const (
	CategoryCourse     Category = "course"
	CategoryChapter    Category = "chapter"    // section
	CategorySequential Category = "sequential" // subsection
	CategoryVertical   Category = "vertical"   // unit
	CategoryComponent  Category = "component"
)

var hierarchy = []Category{
	CategoryCourse,
	CategoryChapter,
	CategorySequential,
	CategoryVertical,
	CategoryComponent,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return slices.Contains(hierarchy, c)
}

// Depth returns the level of the category, 0 for course. Unknown categories return -1.
func (c Category) Depth() int {
	return slices.Index(hierarchy, c)
}

// ChildCategory returns the category allowed directly below c.
func (c Category) ChildCategory() (Category, bool) {
	d := c.Depth()
	if d < 0 || d == len(hierarchy)-1 {
		return "", false
	}
	return hierarchy[d+1], true
}

// CanContain reports whether a node of category c may hold a child of category child.
func (c Category) CanContain(child Category) bool {
	next, ok := c.ChildCategory()
	return ok && next == child
}

// DefaultDisplayName is the name given to freshly created nodes.
func (c Category) DefaultDisplayName() string {
	switch c {
	case CategoryChapter:
		return "Section"
	case CategorySequential:
		return "Subsection"
	case CategoryVertical:
		return "Unit"
	case CategoryComponent:
		return "Component"
	default:
		return "Course"
	}
}

// MaxHighlights is enforced by the editing surface, not by the tree.
const MaxHighlights = 5

// Prerequisite is a subsection that can gate access to another one.
type Prerequisite struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// NodeAttributes holds the raw fields reported by the remote authority for one node.
// Values are replaced wholesale on every fetch; use the With* helpers to derive a new value.
type NodeAttributes struct {
	DisplayName string `json:"display_name"`

	Published     bool       `json:"published"`
	HasChanges    bool       `json:"has_changes"`
	ReleaseDate   *time.Time `json:"release_date,omitempty"`
	ReleaseSource string     `json:"release_source,omitempty"` // label of the ancestor providing the release date
	DueDate       *time.Time `json:"due_date,omitempty"`

	ExplicitStaffLock bool   `json:"explicit_staff_lock"`
	AncestorStaffLock bool   `json:"ancestor_staff_lock"`
	StaffLockSource   string `json:"staff_lock_source,omitempty"`

	IsPrerequisite            bool           `json:"is_prerequisite,omitempty"`
	Prerequisites             []Prerequisite `json:"prerequisites,omitempty"`
	SelectedPrerequisiteID    string         `json:"selected_prerequisite_id,omitempty"`
	PrerequisiteMinScore      string         `json:"prerequisite_min_score,omitempty"`
	PrerequisiteMinCompletion string         `json:"prerequisite_min_completion,omitempty"`

	Highlights []string `json:"highlights,omitempty"`

	// VisibilityStateFromServer is the last state reported by the authority.
	// Only StateGated is trusted; everything else is recomputed locally.
	VisibilityStateFromServer VisibilityState `json:"visibility_state,omitempty"`
}

// Clone returns a deep copy of the attributes.
func (a NodeAttributes) Clone() NodeAttributes {
	out := a
	out.ReleaseDate = cloneTime(a.ReleaseDate)
	out.DueDate = cloneTime(a.DueDate)
	out.Prerequisites = slices.Clone(a.Prerequisites)
	out.Highlights = slices.Clone(a.Highlights)
	return out
}

// WithDisplayName returns a copy with a different display name.
func (a NodeAttributes) WithDisplayName(name string) NodeAttributes {
	out := a.Clone()
	out.DisplayName = name
	return out
}

// WithAncestorStaffLock returns a copy with the inherited lock fields replaced.
func (a NodeAttributes) WithAncestorStaffLock(locked bool, source string) NodeAttributes {
	out := a.Clone()
	out.AncestorStaffLock = locked
	out.StaffLockSource = source
	return out
}

// StaffLocked reports whether the node is hidden from students by any lock.
func (a NodeAttributes) StaffLocked() bool {
	return a.ExplicitStaffLock || a.AncestorStaffLock
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ContentNode is a read-only snapshot of one node of the outline.
type ContentNode struct {
	ID         string
	Category   Category
	ParentID   string // empty for the root
	Attributes NodeAttributes

	// Children is only meaningful when ChildrenLoaded is true.
	// An unloaded node must be fetched before its children are read.
	Children       []string
	ChildrenLoaded bool
}

// NodeSpec describes a node (and optionally its subtree) to install in a tree,
// typically decoded from an authoritative fetch.
type NodeSpec struct {
	ID             string
	Category       Category
	Attributes     NodeAttributes
	Children       []NodeSpec
	ChildrenLoaded bool
}

// StoredNode is the persisted shape used by the remote authority.
type StoredNode struct {
	ID         string         `json:"id"`
	Category   Category       `json:"category"`
	ParentID   string         `json:"parent_id,omitempty"`
	Children   []string       `json:"children"`
	Attributes NodeAttributes `json:"attributes"`
}

// Clone returns a deep copy of the stored node.
func (n StoredNode) Clone() StoredNode {
	out := n
	out.Children = slices.Clone(n.Children)
	out.Attributes = n.Attributes.Clone()
	return out
}
