package tree

import (
	"testing"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(id string, cat domain.Category) domain.NodeSpec {
	return domain.NodeSpec{ID: id, Category: cat, Attributes: domain.NodeAttributes{DisplayName: id}}
}

func parent(id string, cat domain.Category, children ...domain.NodeSpec) domain.NodeSpec {
	return domain.NodeSpec{
		ID:             id,
		Category:       cat,
		Attributes:     domain.NodeAttributes{DisplayName: id},
		Children:       children,
		ChildrenLoaded: true,
	}
}

func fixture(t *testing.T) *Tree {
	t.Helper()
	tr, err := New(parent("course", domain.CategoryCourse,
		parent("A", domain.CategoryChapter,
			leaf("a1", domain.CategorySequential),
			leaf("a2", domain.CategorySequential),
			leaf("a3", domain.CategorySequential),
		),
		parent("B", domain.CategoryChapter,
			leaf("b1", domain.CategorySequential),
			leaf("b2", domain.CategorySequential),
			leaf("b3", domain.CategorySequential),
		),
		leaf("C", domain.CategoryChapter),
	))
	require.NoError(t, err)
	return tr
}

func ids(t *testing.T, tr *Tree, parentID string) []string {
	t.Helper()
	out, err := tr.ChildIDs(parentID)
	require.NoError(t, err)
	return out
}

func TestTree_Reads(t *testing.T) {
	tr := fixture(t)

	n, err := tr.GetNode("a2")
	require.NoError(t, err)
	assert.Equal(t, "A", n.ParentID)
	assert.Equal(t, domain.CategorySequential, n.Category)

	_, err = tr.GetNode("missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	children, err := tr.ChildrenOf("A")
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "a1", children[0].ID)

	_, err = tr.ChildrenOf("C")
	assert.ErrorIs(t, err, domain.ErrUnloaded, "unloaded is distinct from empty")

	anc, err := tr.Ancestors("b2")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "course"}, anc)

	desc, err := tr.Descendants("course")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "a1", "a2", "a3", "B", "b1", "b2", "b3", "C"}, desc)
	assert.Equal(t, 2, tr.IndexOf("B", "b3"))
}

func TestTree_ReturnsCopies(t *testing.T) {
	tr := fixture(t)
	n, err := tr.GetNode("A")
	require.NoError(t, err)
	n.Children[0] = "hacked"
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids(t, tr, "A"))
}

func TestTree_ReorderChildren(t *testing.T) {
	tr := fixture(t)

	require.NoError(t, tr.ReorderChildren("A", []string{"a3", "a1", "a2"}))
	assert.Equal(t, []string{"a3", "a1", "a2"}, ids(t, tr, "A"))

	tests := map[string][]string{
		"missing id":   {"a3", "a1"},
		"foreign id":   {"a3", "a1", "b1"},
		"duplicate id": {"a3", "a3", "a1"},
	}
	for name, order := range tests {
		t.Run(name, func(t *testing.T) {
			err := tr.ReorderChildren("A", order)
			assert.ErrorIs(t, err, domain.ErrInvariantViolation)
			assert.Equal(t, []string{"a3", "a1", "a2"}, ids(t, tr, "A"), "no mutation on failure")
		})
	}
}

func TestTree_MoveChild(t *testing.T) {
	tr := fixture(t)

	require.NoError(t, tr.MoveChild("b1", "B", "A", 0))
	assert.Equal(t, []string{"b1", "a1", "a2", "a3"}, ids(t, tr, "A"))
	assert.Equal(t, []string{"b2", "b3"}, ids(t, tr, "B"))
	n, _ := tr.GetNode("b1")
	assert.Equal(t, "A", n.ParentID)

	require.NoError(t, tr.MoveChild("a3", "A", "A", 0))
	assert.Equal(t, []string{"a3", "b1", "a1", "a2"}, ids(t, tr, "A"))

	err := tr.MoveChild("a1", "A", "B", 7)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	err = tr.MoveChild("a1", "B", "A", 0)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	err = tr.MoveChild("a1", "A", "C", 0)
	assert.ErrorIs(t, err, domain.ErrUnloaded)
}

func TestTree_ResetChildren(t *testing.T) {
	t.Run("full rollback reparents the child", func(t *testing.T) {
		tr := fixture(t)
		snap := tr.Snapshot("A", "B")
		require.NoError(t, tr.MoveChild("b1", "B", "A", 0))

		require.NoError(t, tr.ResetChildren(snap))
		assert.Equal(t, []string{"a1", "a2", "a3"}, ids(t, tr, "A"))
		assert.Equal(t, []string{"b1", "b2", "b3"}, ids(t, tr, "B"))
		n, _ := tr.GetNode("b1")
		assert.Equal(t, "B", n.ParentID)
	})

	t.Run("source-only restore keeps destination", func(t *testing.T) {
		tr := fixture(t)
		snap := tr.Snapshot("A", "B")
		require.NoError(t, tr.MoveChild("b1", "B", "A", 0))

		require.NoError(t, tr.ResetChildren(map[string][]string{"B": snap["B"]}))
		assert.Equal(t, []string{"b1", "a1", "a2", "a3"}, ids(t, tr, "A"))
		assert.Equal(t, []string{"b1", "b2", "b3"}, ids(t, tr, "B"))
		n, _ := tr.GetNode("b1")
		assert.Equal(t, "A", n.ParentID)
	})
}

func TestTree_DetachReattach(t *testing.T) {
	tr := fixture(t)
	require.NoError(t, tr.SetAttributes("b2", domain.NodeAttributes{DisplayName: "Keep me", Published: true}))

	parentID, index, err := tr.Detach("b2")
	require.NoError(t, err)
	assert.Equal(t, "B", parentID)
	assert.Equal(t, 1, index)
	assert.Equal(t, []string{"b1", "b3"}, ids(t, tr, "B"))

	require.NoError(t, tr.Reattach("b2", parentID, index))
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(t, tr, "B"))
	n, err := tr.GetNode("b2")
	require.NoError(t, err)
	assert.Equal(t, "Keep me", n.Attributes.DisplayName)
	assert.True(t, n.Attributes.Published)

	_, _, err = tr.Detach("course")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestTree_Remove(t *testing.T) {
	tr := fixture(t)
	require.NoError(t, tr.Remove("A"))
	assert.False(t, tr.Contains("A"))
	assert.False(t, tr.Contains("a1"))
	assert.Equal(t, []string{"B", "C"}, ids(t, tr, "course"))
}

func TestTree_ReplaceSubtree(t *testing.T) {
	tr := fixture(t)

	err := tr.ReplaceSubtree("B", []domain.NodeSpec{
		leaf("b3", domain.CategorySequential),
		leaf("new", domain.CategorySequential),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b3", "new"}, ids(t, tr, "B"))
	assert.False(t, tr.Contains("b1"))

	err = tr.ReplaceSubtree("C", []domain.NodeSpec{
		parent("c1", domain.CategorySequential, leaf("u1", domain.CategoryVertical)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids(t, tr, "C"))
	assert.Equal(t, []string{"u1"}, ids(t, tr, "c1"))
}

func TestTree_ReplaceSubtree_PreservesLoadedGrandchildren(t *testing.T) {
	tr := fixture(t)
	require.NoError(t, tr.ReplaceSubtree("a1", []domain.NodeSpec{leaf("u1", domain.CategoryVertical)}))

	// Refresh of A without a1's subtree keeps u1.
	err := tr.ReplaceSubtree("A", []domain.NodeSpec{
		leaf("a2", domain.CategorySequential),
		{ID: "a1", Category: domain.CategorySequential, Attributes: domain.NodeAttributes{DisplayName: "Renamed"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, ids(t, tr, "A"))
	assert.Equal(t, []string{"u1"}, ids(t, tr, "a1"))
	n, _ := tr.GetNode("a1")
	assert.Equal(t, "Renamed", n.Attributes.DisplayName)
	assert.False(t, tr.Contains("a3"))
}

func TestTree_ReplaceSubtree_RejectsDuplicates(t *testing.T) {
	tr := fixture(t)
	err := tr.ReplaceSubtree("B", []domain.NodeSpec{leaf("x", domain.CategorySequential), leaf("x", domain.CategorySequential)})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(t, tr, "B"))
}

func TestTree_InsertChild(t *testing.T) {
	tr := fixture(t)
	require.NoError(t, tr.InsertChild("A", 1, leaf("ax", domain.CategorySequential)))
	assert.Equal(t, []string{"a1", "ax", "a2", "a3"}, ids(t, tr, "A"))
	assert.ErrorIs(t, tr.InsertChild("A", 0, leaf("a1", domain.CategorySequential)), domain.ErrInvariantViolation)
}

func TestTree_StaffLockPropagation(t *testing.T) {
	tr := fixture(t)
	require.NoError(t, tr.SetAttributes("B", domain.NodeAttributes{DisplayName: "Week 2", ExplicitStaffLock: true}))

	changed, err := tr.PropagateStaffLock("B")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b1", "b2", "b3"}, changed)

	n, _ := tr.GetNode("b2")
	assert.True(t, n.Attributes.AncestorStaffLock)
	assert.Equal(t, "Week 2", n.Attributes.StaffLockSource)

	source, ok := tr.StaffLockSource("b3")
	assert.True(t, ok)
	assert.Equal(t, "Week 2", source)

	require.NoError(t, tr.SetAttributes("B", domain.NodeAttributes{DisplayName: "Week 2"}))
	changed, err = tr.PropagateStaffLock("B")
	require.NoError(t, err)
	assert.Len(t, changed, 3)
	n, _ = tr.GetNode("b2")
	assert.False(t, n.Attributes.AncestorStaffLock)
}

func TestTree_Walk(t *testing.T) {
	tr := fixture(t)
	var visited []string
	tr.Walk(func(n domain.ContentNode, depth int) bool {
		visited = append(visited, n.ID)
		return n.ID != "A"
	})
	assert.Equal(t, []string{"course", "A", "B", "b1", "b2", "b3", "C"}, visited)
}
