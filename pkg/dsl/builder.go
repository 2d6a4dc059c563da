package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/outline/pkg/domain"
)

// Builder manages the outline construction.
type Builder struct {
	rootID string
	nodes  map[string]*NodeBuilder
	errs   []error
}

// New creates a builder for a course.
func New(courseID, displayName string) *Builder {
	b := &Builder{
		rootID: courseID,
		nodes:  make(map[string]*NodeBuilder),
	}
	b.nodes[courseID] = &NodeBuilder{
		spec:    domain.NodeSpec{ID: courseID, Category: domain.CategoryCourse, Attributes: domain.NodeAttributes{DisplayName: displayName}},
		builder: b,
		loaded:  true,
	}
	return b
}

// Course returns the builder of the course node.
func (b *Builder) Course() *NodeBuilder {
	return b.nodes[b.rootID]
}

// Add appends a node under parentID. Its category is the level below the parent's.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(parentID, id, displayName string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		spec:    domain.NodeSpec{ID: id, Attributes: domain.NodeAttributes{DisplayName: displayName}},
		builder: b,
		loaded:  true,
	}
	b.nodes[id] = nb

	parent, ok := b.nodes[parentID]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%s: unknown parent %s", id, parentID))
		return nb
	}
	category, ok := parent.spec.Category.ChildCategory()
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%s: %s cannot have children", id, parent.spec.Category))
		return nb
	}
	nb.spec.Category = category
	parent.children = append(parent.children, nb)
	return nb
}

// Build assembles the outline spec.
func (b *Builder) Build() (domain.NodeSpec, error) {
	if len(b.errs) > 0 {
		return domain.NodeSpec{}, fmt.Errorf("failed to build outline: %w", errors.Join(b.errs...))
	}
	return b.Course().Build(), nil
}
