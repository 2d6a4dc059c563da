package dsl

import (
	"time"

	"github.com/aretw0/outline/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	spec     domain.NodeSpec
	children []*NodeBuilder
	loaded   bool
	builder  *Builder
}

// Add appends a child to this node. See Builder.Add.
func (n *NodeBuilder) Add(id, displayName string) *NodeBuilder {
	return n.builder.Add(n.spec.ID, id, displayName)
}

// Published marks the node as published with no pending changes.
func (n *NodeBuilder) Published() *NodeBuilder {
	n.spec.Attributes.Published = true
	return n
}

// Changed marks the node as having unpublished changes.
func (n *NodeBuilder) Changed() *NodeBuilder {
	n.spec.Attributes.HasChanges = true
	return n
}

// Release sets the release date.
func (n *NodeBuilder) Release(t time.Time) *NodeBuilder {
	n.spec.Attributes.ReleaseDate = &t
	return n
}

// Due sets the due date.
func (n *NodeBuilder) Due(t time.Time) *NodeBuilder {
	n.spec.Attributes.DueDate = &t
	return n
}

// StaffOnly sets an explicit staff lock.
func (n *NodeBuilder) StaffOnly() *NodeBuilder {
	n.spec.Attributes.ExplicitStaffLock = true
	return n
}

// Prerequisite marks the subsection as usable as a prerequisite.
func (n *NodeBuilder) Prerequisite() *NodeBuilder {
	n.spec.Attributes.IsPrerequisite = true
	return n
}

// GatedBy requires completion of prereqID with the given thresholds.
func (n *NodeBuilder) GatedBy(prereqID, minScore, minCompletion string) *NodeBuilder {
	n.spec.Attributes.SelectedPrerequisiteID = prereqID
	n.spec.Attributes.PrerequisiteMinScore = minScore
	n.spec.Attributes.PrerequisiteMinCompletion = minCompletion
	return n
}

// Highlights sets the section highlights.
func (n *NodeBuilder) Highlights(h ...string) *NodeBuilder {
	n.spec.Attributes.Highlights = append([]string(nil), h...)
	return n
}

// Unloaded builds the node with ChildrenLoaded unset, as a lazily fetched node would be.
func (n *NodeBuilder) Unloaded() *NodeBuilder {
	n.loaded = false
	return n
}

// Build returns the node spec with its subtree.
func (n *NodeBuilder) Build() domain.NodeSpec {
	spec := n.spec
	spec.Attributes = n.spec.Attributes.Clone()
	spec.ChildrenLoaded = n.loaded
	if !n.loaded {
		return spec
	}
	spec.Children = make([]domain.NodeSpec, 0, len(n.children))
	for _, c := range n.children {
		spec.Children = append(spec.Children, c.Build())
	}
	return spec
}
