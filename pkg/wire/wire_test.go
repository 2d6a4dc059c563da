package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outlineJSON = `{
  "id": "chapter-1",
  "display_name": "Week 1",
  "category": "chapter",
  "published": true,
  "has_changes": false,
  "start": "2014-07-09T00:00:00Z",
  "due": "",
  "has_explicit_staff_lock": false,
  "ancestor_has_staff_lock": false,
  "visibility_state": "ready",
  "child_info": {
    "category": "sequential",
    "display_name": "Subsection",
    "children": [
      {
        "id": "seq-1",
        "display_name": "Lesson",
        "category": "sequential",
        "published": true,
        "has_explicit_staff_lock": true,
        "prereqs": [{"block_usage_key": "seq-0", "block_display_name": "Intro"}],
        "prereq": "seq-0",
        "prereq_min_score": 80,
        "prereq_min_completion": "100",
        "visibility_state": "gated"
      },
      {
        "id": "seq-2",
        "display_name": "Lab",
        "category": "sequential",
        "visibility_state": "hide_from_toc"
      }
    ]
  }
}`

func TestDecodeXBlockInfo(t *testing.T) {
	info, err := DecodeXBlockInfo([]byte(outlineJSON))
	require.NoError(t, err)

	assert.Equal(t, "chapter-1", info.ID)
	require.NotNil(t, info.Start)
	assert.True(t, time.Date(2014, 7, 9, 0, 0, 0, 0, time.UTC).Equal(*info.Start))
	assert.Nil(t, info.Due, "empty dates are absent")
	require.NotNil(t, info.ChildInfo)
	require.Len(t, info.ChildInfo.Children, 2)
	assert.Equal(t, "80", info.ChildInfo.Children[0].PrereqMinScore, "numbers are weakly converted")

	spec := info.Spec()
	assert.True(t, spec.ChildrenLoaded)
	assert.Equal(t, domain.CategoryChapter, spec.Category)
	assert.Equal(t, domain.StateScheduled, spec.Attributes.VisibilityStateFromServer)

	gated := spec.Children[0]
	assert.False(t, gated.ChildrenLoaded, "no child_info means unloaded")
	assert.Equal(t, domain.StateGated, gated.Attributes.VisibilityStateFromServer)
	assert.True(t, gated.Attributes.ExplicitStaffLock)
	assert.Equal(t, []domain.Prerequisite{{ID: "seq-0", Label: "Intro"}}, gated.Attributes.Prerequisites)
	assert.Equal(t, "seq-0", gated.Attributes.SelectedPrerequisiteID)

	assert.Empty(t, spec.Children[1].Attributes.VisibilityStateFromServer, "hide_from_toc is unknown")
}

func TestDecodeXBlockInfo_Errors(t *testing.T) {
	_, err := DecodeXBlockInfo([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeXBlockInfo([]byte(`{"display_name": "no id"}`))
	assert.Error(t, err)

	_, err = DecodeXBlockInfo([]byte(`{"id": "x", "start": "yesterday"}`))
	assert.Error(t, err)
}

func TestRequestBodies(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"children", NewChildrenPatch([]string{"a3", "a1", "a2"}), `{"children":["a3","a1","a2"]}`},
		{"empty children", NewChildrenPatch(nil), `{"children":[]}`},
		{"publish", PublishPatch(PublishMakePublic), `{"publish":"make_public"}`},
		{"lock", StaffLockPatch(true), `{"publish":"republish","metadata":{"visible_to_staff_only":true}}`},
		{"unlock", StaffLockPatch(false), `{"publish":"republish","metadata":{"visible_to_staff_only":null}}`},
		{"rename", RenamePatch("New"), `{"metadata":{"display_name":"New"}}`},
		{"create", CreateRequest{ParentLocator: "p", Category: "chapter", DisplayName: "Section"}, `{"parent_locator":"p","category":"chapter","display_name":"Section"}`},
		{"duplicate", CreateRequest{ParentLocator: "p", DuplicateSourceLocator: "s"}, `{"parent_locator":"p","duplicate_source_locator":"s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.body)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestPatchRequest_ChildrenPresence(t *testing.T) {
	var withEmpty, without PatchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"children":[]}`), &withEmpty))
	require.NoError(t, json.Unmarshal([]byte(`{"publish":"make_public"}`), &without))

	require.NotNil(t, withEmpty.Children)
	assert.Empty(t, *withEmpty.Children)
	assert.Nil(t, without.Children)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Locked", ErrorMessage([]byte(`{"error":"Locked"}`)))
	assert.Equal(t, "", ErrorMessage([]byte(`<html>`)))
	assert.Equal(t, "", ErrorMessage(nil))
}

func TestFromStoredRoundTrip(t *testing.T) {
	release := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := domain.StoredNode{
		ID:       "s1",
		Category: domain.CategorySequential,
		Attributes: domain.NodeAttributes{
			DisplayName:   "Lesson",
			Published:     true,
			ReleaseDate:   &release,
			Prerequisites: []domain.Prerequisite{{ID: "p", Label: "P"}},
		},
	}
	attrs := FromStored(stored).Attributes()
	assert.Equal(t, stored.Attributes, attrs)
}
