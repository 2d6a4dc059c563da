package visibility

import (
	"testing"
	"time"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func TestComputeState(t *testing.T) {
	past := at(now.Add(-24 * time.Hour))
	future := at(now.Add(24 * time.Hour))

	tests := []struct {
		name  string
		attrs domain.NodeAttributes
		want  domain.VisibilityState
	}{
		{
			name:  "server gated wins over lock",
			attrs: domain.NodeAttributes{VisibilityStateFromServer: domain.StateGated, ExplicitStaffLock: true},
			want:  domain.StateGated,
		},
		{
			name:  "explicit lock",
			attrs: domain.NodeAttributes{ExplicitStaffLock: true, Published: true, ReleaseDate: past},
			want:  domain.StateStaffOnly,
		},
		{
			name:  "ancestor lock beats changes",
			attrs: domain.NodeAttributes{AncestorStaffLock: true, HasChanges: true},
			want:  domain.StateStaffOnly,
		},
		{
			name:  "published with changes",
			attrs: domain.NodeAttributes{Published: true, HasChanges: true, ReleaseDate: past},
			want:  domain.StateNeedsAttention,
		},
		{
			name:  "unpublished with changes",
			attrs: domain.NodeAttributes{HasChanges: true},
			want:  domain.StateNeedsAttention,
		},
		{
			name:  "released",
			attrs: domain.NodeAttributes{Published: true, ReleaseDate: past},
			want:  domain.StateLive,
		},
		{
			name:  "released exactly now",
			attrs: domain.NodeAttributes{Published: true, ReleaseDate: at(now)},
			want:  domain.StateLive,
		},
		{
			name:  "future release",
			attrs: domain.NodeAttributes{Published: true, ReleaseDate: future},
			want:  domain.StateScheduled,
		},
		{
			name:  "published without date",
			attrs: domain.NodeAttributes{Published: true},
			want:  domain.StateScheduled,
		},
		{
			name:  "server live is recomputed",
			attrs: domain.NodeAttributes{VisibilityStateFromServer: domain.StateLive},
			want:  domain.StateUnscheduled,
		},
		{
			name:  "nothing set",
			attrs: domain.NodeAttributes{},
			want:  domain.StateUnscheduled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeState(tt.attrs, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ComputeState(tt.attrs, now), "deterministic")
		})
	}
}

func TestComputeState_AncestorLockFlipsToStaffOnly(t *testing.T) {
	cases := []domain.NodeAttributes{
		{},
		{Published: true},
		{Published: true, ReleaseDate: at(now.Add(-time.Hour))},
		{HasChanges: true},
	}
	for _, attrs := range cases {
		assert.NotEqual(t, domain.StateStaffOnly, ComputeState(attrs, now))
		locked := attrs.WithAncestorStaffLock(true, "Week 1")
		assert.Equal(t, domain.StateStaffOnly, ComputeState(locked, now))
	}
}

func TestCalculator_SelfPaced(t *testing.T) {
	future := at(now.Add(time.Hour))
	clock := func() time.Time { return now }

	instructorPaced := NewCalculator(domain.CourseSettings{}, WithClock(clock))
	selfPaced := NewCalculator(domain.CourseSettings{SelfPaced: true}, WithClock(clock))

	attrs := domain.NodeAttributes{Published: true, ReleaseDate: future}
	assert.Equal(t, domain.StateScheduled, instructorPaced.State(attrs))
	assert.Equal(t, domain.StateLive, selfPaced.State(attrs))

	changed := domain.NodeAttributes{Published: true, HasChanges: true}
	assert.Equal(t, domain.StateNeedsAttention, selfPaced.State(changed))
	assert.Equal(t, domain.StateUnscheduled, selfPaced.State(domain.NodeAttributes{}))
}

func TestRollup(t *testing.T) {
	live, staff, warn := domain.StateLive, domain.StateStaffOnly, domain.StateNeedsAttention

	assert.Equal(t, live, Rollup(live, nil))
	assert.Equal(t, warn, Rollup(live, []domain.VisibilityState{live, warn}))
	assert.Equal(t, staff, Rollup(live, []domain.VisibilityState{staff, staff}))
	assert.Equal(t, live, Rollup(live, []domain.VisibilityState{staff, live}))
	assert.Equal(t, staff, Rollup(staff, []domain.VisibilityState{warn}))
}
