package testutils

import (
	"strings"

	"github.com/aretw0/outline/pkg/domain"
)

// Leaf returns an unloaded node spec named after its id.
func Leaf(id string, cat domain.Category) domain.NodeSpec {
	return domain.NodeSpec{ID: id, Category: cat, Attributes: domain.NodeAttributes{DisplayName: id}}
}

// Parent returns a loaded node spec with the given children.
func Parent(id string, cat domain.Category, children ...domain.NodeSpec) domain.NodeSpec {
	if children == nil {
		children = []domain.NodeSpec{}
	}
	return domain.NodeSpec{
		ID:             id,
		Category:       cat,
		Attributes:     domain.NodeAttributes{DisplayName: id},
		Children:       children,
		ChildrenLoaded: true,
	}
}

// Course returns a course with three sections:
// A=[a1,a2,a3], B=[b1,b2,b3] and C=[c1,c2,c3].
func Course() domain.NodeSpec {
	section := func(id string) domain.NodeSpec {
		return Parent(id, domain.CategoryChapter,
			Leaf(strings.ToLower(id)+"1", domain.CategorySequential),
			Leaf(strings.ToLower(id)+"2", domain.CategorySequential),
			Leaf(strings.ToLower(id)+"3", domain.CategorySequential),
		)
	}
	return Parent("course", domain.CategoryCourse, section("A"), section("B"), section("C"))
}
