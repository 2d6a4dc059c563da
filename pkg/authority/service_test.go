package authority_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/outline/internal/testutils"
	"github.com/aretw0/outline/pkg/adapters/memory"
	"github.com/aretw0/outline/pkg/authority"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...authority.Option) (*authority.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]authority.Option{authority.WithClock(func() time.Time { return now })}, opts...)
	svc := authority.New(store, opts...)
	require.NoError(t, svc.Import(context.Background(), testutils.Course()))
	return svc, store
}

func childIDs(x wire.XBlockInfo) []string {
	if x.ChildInfo == nil {
		return nil
	}
	ids := make([]string, 0, len(x.ChildInfo.Children))
	for _, c := range x.ChildInfo.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

func strPtr(s string) *string { return &s }

func TestImport_RejectsInvalidNesting(t *testing.T) {
	svc := authority.New(memory.NewStore())
	bad := testutils.Parent("course", domain.CategoryCourse, testutils.Leaf("v", domain.CategoryVertical))

	err := svc.Import(context.Background(), bad)
	assert.ErrorIs(t, err, authority.ErrInvalid)
}

func TestOutline_RendersSubtree(t *testing.T) {
	svc, _ := newService(t)

	out, err := svc.Outline(context.Background(), "course")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, childIDs(out))
	assert.Equal(t, "chapter", out.ChildInfo.Category)
	assert.Equal(t, []string{"a1", "a2", "a3"}, childIDs(out.ChildInfo.Children[0]))
	assert.Equal(t, "unscheduled", out.VisibilityState)

	leaf := out.ChildInfo.Children[0].ChildInfo.Children[0]
	require.NotNil(t, leaf.ChildInfo, "an empty loaded subtree still carries child_info")
	assert.Empty(t, leaf.ChildInfo.Children)
}

func TestNode_OmitsChildren(t *testing.T) {
	svc, _ := newService(t)

	n, err := svc.Node(context.Background(), "A")
	require.NoError(t, err)
	assert.Nil(t, n.ChildInfo)
	assert.Equal(t, "A", n.DisplayName)

	_, err = svc.Node(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestSetChildren_Reorder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	order := []string{"a3", "a1", "a2"}
	_, err := svc.Update(ctx, "A", wire.PatchRequest{Children: &order})
	require.NoError(t, err)

	out, err := svc.Outline(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, order, childIDs(out))
}

func TestSetChildren_MoveAcrossParents(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	dest := []string{"b1", "a2", "b2", "b3"}
	_, err := svc.Update(ctx, "B", wire.PatchRequest{Children: &dest})
	require.NoError(t, err)

	moved, err := store.Get(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "B", moved.ParentID)

	a, err := store.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a3"}, a.Children, "adopting removes the child from its old parent")

	// The follow-up source request is accepted and changes nothing.
	src := []string{"a1", "a3"}
	_, err = svc.Update(ctx, "A", wire.PatchRequest{Children: &src})
	assert.NoError(t, err)
}

func TestSetChildren_Rejections(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		parent string
		order  []string
	}{
		{"duplicate", "A", []string{"a1", "a1", "a2", "a3"}},
		{"unknown child", "A", []string{"a1", "a2", "a3", "zz"}},
		{"wrong category", "A", []string{"a1", "a2", "a3", "B"}},
		{"orphaning", "A", []string{"a1", "a2"}},
		{"self", "A", []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := tt.order
			_, err := svc.Update(ctx, tt.parent, wire.PatchRequest{Children: &order})
			assert.ErrorIs(t, err, authority.ErrInvalid)
		})
	}

	out, err := svc.Outline(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3"}, childIDs(out), "rejected requests leave the order untouched")
}

func TestCreate_AppendsWithDefaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, wire.CreateRequest{ParentLocator: "A"})
	require.NoError(t, err)
	assert.Equal(t, "course", resp.CourseKey)
	assert.Contains(t, resp.Locator, "sequential@")

	out, err := svc.Outline(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3", resp.Locator}, childIDs(out))
	created := out.ChildInfo.Children[3]
	assert.Equal(t, "Subsection", created.DisplayName)
	assert.Equal(t, "unscheduled", created.VisibilityState)

	_, err = svc.Create(ctx, wire.CreateRequest{ParentLocator: "A", Category: "chapter"})
	assert.ErrorIs(t, err, authority.ErrInvalid)
}

func TestDuplicate_DeepCopyAfterSource(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, wire.CreateRequest{ParentLocator: "a1", DisplayName: "Unit 1"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "a1", wire.PublishPatch(wire.PublishMakePublic))
	require.NoError(t, err)

	resp, err := svc.Create(ctx, wire.CreateRequest{ParentLocator: "A", DuplicateSourceLocator: "a1"})
	require.NoError(t, err)

	out, err := svc.Outline(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", resp.Locator, "a2", "a3"}, childIDs(out))

	dup := out.ChildInfo.Children[1]
	assert.Equal(t, "Duplicate of 'a1'", dup.DisplayName)
	assert.False(t, dup.Published)
	require.Len(t, dup.ChildInfo.Children, 1)
	unit := dup.ChildInfo.Children[0]
	assert.Equal(t, "Unit 1", unit.DisplayName)
	assert.NotEqual(t, out.ChildInfo.Children[0].ChildInfo.Children[0].ID, unit.ID)
	assert.False(t, unit.Published)
}

func TestDelete_Recursive(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "A"))

	_, err := store.Get(ctx, "a2")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	out, err := svc.Outline(ctx, "course")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, childIDs(out))

	assert.ErrorIs(t, svc.Delete(ctx, "course"), authority.ErrInvalid)
	assert.ErrorIs(t, svc.Delete(ctx, "A"), domain.ErrNodeNotFound)
}

func TestPublish_CascadesAndDiscard(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	x, err := svc.Update(ctx, "A", wire.PublishPatch(wire.PublishMakePublic))
	require.NoError(t, err)
	assert.True(t, x.Published)
	assert.Equal(t, "ready", x.VisibilityState, "published without a release date is scheduled")

	out, err := svc.Outline(ctx, "A")
	require.NoError(t, err)
	for _, c := range out.ChildInfo.Children {
		assert.True(t, c.Published, c.ID)
	}

	x, err = svc.Update(ctx, "a1", wire.RenamePatch("Intro"))
	require.NoError(t, err)
	assert.True(t, x.HasChanges)
	assert.Equal(t, "needs_attention", x.VisibilityState)

	x, err = svc.Update(ctx, "a1", wire.PublishPatch(wire.PublishDiscardChanges))
	require.NoError(t, err)
	assert.False(t, x.HasChanges)
}

func TestReleaseDate_InheritedAndLive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "A", wire.PatchRequest{
		Publish:  wire.PublishMakePublic,
		Metadata: wire.Metadata{wire.MetaStart: "2025-01-01T00:00:00Z"},
	})
	require.NoError(t, err)

	x, err := svc.Node(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, x.Start)
	assert.Equal(t, "A", x.ReleaseDateFrom)
	assert.Equal(t, "live", x.VisibilityState)
}

func TestSelfPaced_PublishedIsLive(t *testing.T) {
	svc, _ := newService(t, authority.WithCourseSettings(domain.CourseSettings{ID: "course", SelfPaced: true}))
	ctx := context.Background()

	x, err := svc.Update(ctx, "A", wire.PublishPatch(wire.PublishMakePublic))
	require.NoError(t, err)
	assert.Equal(t, "live", x.VisibilityState)
}

func TestStaffLock_Inherited(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	x, err := svc.Update(ctx, "A", wire.StaffLockPatch(true))
	require.NoError(t, err)
	assert.True(t, x.HasExplicitStaffLock)
	assert.Equal(t, "staff_only", x.VisibilityState)

	child, err := svc.Node(ctx, "a2")
	require.NoError(t, err)
	assert.True(t, child.AncestorHasStaffLock)
	assert.Equal(t, "A", child.StaffLockFrom)
	assert.Equal(t, "staff_only", child.VisibilityState)

	_, err = svc.Update(ctx, "A", wire.StaffLockPatch(false))
	require.NoError(t, err)
	child, err = svc.Node(ctx, "a2")
	require.NoError(t, err)
	assert.False(t, child.AncestorHasStaffLock)
}

func TestGating(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	yes := true

	_, err := svc.Update(ctx, "a1", wire.PatchRequest{IsPrereq: &yes})
	require.NoError(t, err)

	x, err := svc.Node(ctx, "a2")
	require.NoError(t, err)
	require.Len(t, x.Prereqs, 1)
	assert.Equal(t, "a1", x.Prereqs[0].BlockUsageKey)

	self, err := svc.Node(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, self.Prereqs, "a subsection is never its own candidate")

	x, err = svc.Update(ctx, "a2", wire.PatchRequest{
		PrereqUsageKey:      strPtr("a1"),
		PrereqMinScore:      strPtr(" 80 "),
		PrereqMinCompletion: strPtr("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "gated", x.VisibilityState)
	assert.Equal(t, "80", x.PrereqMinScore)

	_, err = svc.Update(ctx, "a2", wire.PatchRequest{PrereqMinScore: strPtr("101")})
	assert.ErrorIs(t, err, authority.ErrInvalid)
	_, err = svc.Update(ctx, "a3", wire.PatchRequest{PrereqUsageKey: strPtr("a2")})
	assert.ErrorIs(t, err, authority.ErrInvalid, "only prerequisites can be selected")
	_, err = svc.Update(ctx, "A", wire.PatchRequest{IsPrereq: &yes})
	assert.ErrorIs(t, err, authority.ErrInvalid)

	x, err = svc.Update(ctx, "a2", wire.PatchRequest{PrereqUsageKey: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "unscheduled", x.VisibilityState)
	assert.Empty(t, x.PrereqMinScore)
}

func TestMetadata_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "A", wire.PatchRequest{Metadata: wire.Metadata{"color": "red"}})
	assert.ErrorIs(t, err, authority.ErrInvalid)

	_, err = svc.Update(ctx, "A", wire.PatchRequest{Metadata: wire.Metadata{wire.MetaStart: "tomorrow"}})
	assert.ErrorIs(t, err, authority.ErrInvalid)

	six := []any{"1", "2", "3", "4", "5", "6"}
	_, err = svc.Update(ctx, "A", wire.PatchRequest{Metadata: wire.Metadata{wire.MetaHighlights: six}})
	assert.ErrorIs(t, err, authority.ErrInvalid)

	x, err := svc.Update(ctx, "A", wire.PatchRequest{Metadata: wire.Metadata{wire.MetaHighlights: six[:2]}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, x.Highlights)
}

func TestObserverAndLocker(t *testing.T) {
	var mu sync.Mutex
	var changes []authority.Change
	svc, _ := newService(t,
		authority.WithLocker(memory.NewLocker()),
		authority.WithObserver(func(c authority.Change) {
			mu.Lock()
			defer mu.Unlock()
			changes = append(changes, c)
		}),
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, wire.CreateRequest{ParentLocator: "B"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	out, err := svc.Outline(ctx, "B")
	require.NoError(t, err)
	assert.Len(t, out.ChildInfo.Children, 8, "concurrent creates must not lose updates")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 6)
	assert.Equal(t, authority.ActionImported, changes[0].Action)
	for _, c := range changes[1:] {
		assert.Equal(t, authority.ActionCreated, c.Action)
		assert.Equal(t, "course", c.CourseID)
	}
}
