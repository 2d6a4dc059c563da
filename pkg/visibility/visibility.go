// Package visibility derives the display state of a node from its raw attributes.
package visibility

import (
	"time"

	"github.com/aretw0/outline/pkg/domain"
)

// ComputeState derives the visibility state of a node. The first matching rule wins:
//
//  1. gated, when the server reported it (gating is only known server-side)
//  2. staffOnly, when an explicit or inherited staff lock is set
//  3. needsAttention, when there are unpublished changes (published or not)
//  4. live, when published and released
//  5. scheduled, when published with a future or missing release date
//  6. unscheduled otherwise
func ComputeState(attrs domain.NodeAttributes, now time.Time) domain.VisibilityState {
	switch {
	case attrs.VisibilityStateFromServer == domain.StateGated:
		return domain.StateGated
	case attrs.ExplicitStaffLock || attrs.AncestorStaffLock:
		return domain.StateStaffOnly
	case attrs.HasChanges:
		return domain.StateNeedsAttention
	case attrs.Published && attrs.ReleaseDate != nil && !attrs.ReleaseDate.After(now):
		return domain.StateLive
	case attrs.Published:
		return domain.StateScheduled
	default:
		return domain.StateUnscheduled
	}
}

// Calculator applies course-wide settings on top of ComputeState.
type Calculator struct {
	settings domain.CourseSettings
	now      func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// NewCalculator creates a calculator for a course.
func NewCalculator(settings domain.CourseSettings, opts ...Option) *Calculator {
	c := &Calculator{
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the course settings the calculator was built with.
func (c *Calculator) Settings() domain.CourseSettings {
	return c.settings
}

// State computes the state of attrs at the calculator's current time.
func (c *Calculator) State(attrs domain.NodeAttributes) domain.VisibilityState {
	return c.StateAt(attrs, c.now())
}

// StateAt computes the state of attrs at now.
// In self-paced courses release dates do not apply, so published content is live.
func (c *Calculator) StateAt(attrs domain.NodeAttributes, now time.Time) domain.VisibilityState {
	state := ComputeState(attrs, now)
	if c.settings.SelfPaced && state == domain.StateScheduled {
		return domain.StateLive
	}
	return state
}

// Rollup summarizes a container from its own state and its children's states.
// Any child needing attention marks the container; a container whose children are
// all staff only is reported as staff only.
func Rollup(self domain.VisibilityState, children []domain.VisibilityState) domain.VisibilityState {
	if self == domain.StateGated || self == domain.StateStaffOnly || len(children) == 0 {
		return self
	}
	allStaff := true
	for _, s := range children {
		if s == domain.StateNeedsAttention {
			return domain.StateNeedsAttention
		}
		if s != domain.StateStaffOnly {
			allStaff = false
		}
	}
	if allStaff {
		return domain.StateStaffOnly
	}
	return self
}
