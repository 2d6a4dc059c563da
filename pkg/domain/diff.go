package domain

import "slices"

// ChildrenDiff represents the changes between two child orders of the same parent.
// It is designed to be serialized to JSON for partial updates of a rendered outline.
type ChildrenDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`

	// Order is set when the relative order of retained children changed,
	// or when anything was added or removed.
	Order []string `json:"order,omitempty"`
}

// DiffChildren calculates the difference between two child orders.
// It returns nil when both orders are identical.
func DiffChildren(before, after []string) *ChildrenDiff {
	if slices.Equal(before, after) {
		return nil
	}

	diff := &ChildrenDiff{}
	for _, id := range after {
		if !slices.Contains(before, id) {
			diff.Added = append(diff.Added, id)
		}
	}
	for _, id := range before {
		if !slices.Contains(after, id) {
			diff.Removed = append(diff.Removed, id)
		}
	}
	diff.Order = slices.Clone(after)
	if diff.Order == nil {
		diff.Order = []string{}
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ChildrenDiff) IsEmpty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Removed) == 0 && d.Order == nil)
}

// IsReorder reports whether the diff only permutes existing children.
func (d *ChildrenDiff) IsReorder() bool {
	return d != nil && len(d.Added) == 0 && len(d.Removed) == 0 && d.Order != nil
}
