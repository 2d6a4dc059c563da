package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffChildren(t *testing.T) {
	tests := []struct {
		name    string
		before  []string
		after   []string
		want    *ChildrenDiff
		reorder bool
	}{
		{
			name:   "No Changes",
			before: []string{"a", "b"},
			after:  []string{"a", "b"},
			want:   nil,
		},
		{
			name:    "Reorder",
			before:  []string{"a", "b", "c"},
			after:   []string{"c", "a", "b"},
			want:    &ChildrenDiff{Order: []string{"c", "a", "b"}},
			reorder: true,
		},
		{
			name:   "Insert",
			before: []string{"a"},
			after:  []string{"a", "x"},
			want:   &ChildrenDiff{Added: []string{"x"}, Order: []string{"a", "x"}},
		},
		{
			name:   "Remove Last",
			before: []string{"a"},
			after:  nil,
			want:   &ChildrenDiff{Removed: []string{"a"}, Order: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffChildren(tt.before, tt.after)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reorder, got.IsReorder())
			if tt.want == nil {
				assert.True(t, got.IsEmpty())
			} else {
				assert.False(t, got.IsEmpty())
			}
		})
	}
}

func TestDiffChildren_JSON(t *testing.T) {
	diff := DiffChildren([]string{"a", "b"}, []string{"b"})
	data, err := json.Marshal(diff)
	require.NoError(t, err)
	assert.JSONEq(t, `{"removed":["a"],"order":["b"]}`, string(data))
}
