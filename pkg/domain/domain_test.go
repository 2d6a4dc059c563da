package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategoryHierarchy(t *testing.T) {
	child, ok := CategoryCourse.ChildCategory()
	assert.True(t, ok)
	assert.Equal(t, CategoryChapter, child)

	assert.True(t, CategorySequential.CanContain(CategoryVertical))
	assert.False(t, CategorySequential.CanContain(CategoryComponent))

	_, ok = CategoryComponent.ChildCategory()
	assert.False(t, ok)
	assert.False(t, Category("library").Valid())
	assert.Equal(t, -1, Category("library").Depth())
}

func TestNodeAttributes_CloneIsDeep(t *testing.T) {
	release := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	attrs := NodeAttributes{
		DisplayName: "Intro",
		ReleaseDate: &release,
		Highlights:  []string{"one"},
	}

	clone := attrs.WithDisplayName("Renamed")
	clone.Highlights[0] = "changed"
	*clone.ReleaseDate = release.Add(time.Hour)

	assert.Equal(t, "Intro", attrs.DisplayName)
	assert.Equal(t, "one", attrs.Highlights[0])
	assert.Equal(t, release, *attrs.ReleaseDate)
	assert.Equal(t, "Renamed", clone.DisplayName)
}

func TestParseVisibilityState(t *testing.T) {
	tests := map[string]VisibilityState{
		"live":            StateLive,
		"ready":           StateScheduled,
		"unscheduled":     StateUnscheduled,
		"needs_attention": StateNeedsAttention,
		"staff_only":      StateStaffOnly,
		"gated":           StateGated,
		"staffOnly":       StateStaffOnly,
	}
	for name, want := range tests {
		got, ok := ParseVisibilityState(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
		assert.NotEmpty(t, got.WireName())
	}

	_, ok := ParseVisibilityState("hide_from_toc")
	assert.False(t, ok)
}

func TestRemoteError(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := error(&RemoteError{
		Kind:   OpMove,
		Stage:  StagePrimary,
		Method: "PATCH",
		Path:   "/xblock/a",
		Err:    ErrTransportFailure,
		Cause:  cause,
	})

	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRemoteRejected)

	var remote *RemoteError
	assert.True(t, errors.As(err, &remote))
	assert.Equal(t, "Could not move item", remote.UserMessage())

	rejected := &RemoteError{Kind: OpDelete, Status: 400, Message: "locked", Err: ErrRemoteRejected}
	assert.Equal(t, "locked", rejected.UserMessage())
	assert.Contains(t, rejected.Error(), "status 400")

	rejected.Message = ""
	assert.Equal(t, "Could not delete item", rejected.UserMessage())
}

func TestInvariantError(t *testing.T) {
	err := Invariant("reorder", "expected %d children, got %d", 3, 2)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "reorder")
}

func TestOperationKindActivity(t *testing.T) {
	assert.Equal(t, ActivitySaving, OpMove.Activity())
	assert.Equal(t, ActivitySaving, OpToggleStaffLock.Activity())
	assert.Equal(t, ActivityDeleting, OpDelete.Activity())
	assert.Equal(t, ActivityDuplicating, OpDuplicate.Activity())
	assert.Equal(t, ActivityCreating, OpCreate.Activity())
	assert.Equal(t, ActivityPublishing, OpDiscardChanges.Activity())
}
