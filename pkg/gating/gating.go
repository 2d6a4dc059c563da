// Package gating validates prerequisite configuration of a subsection.
package gating

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/outline/pkg/domain"
)

// Reason classifies why a threshold field is invalid.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonRequired      Reason = "required"
	ReasonMustBeInteger Reason = "must_be_integer"
	ReasonOutOfRange    Reason = "out_of_range"
)

const (
	FieldMinScore      = "prereq_min_score"
	FieldMinCompletion = "prereq_min_completion"
)

// Bounds of a threshold, inclusive.
const (
	MinThreshold = 0
	MaxThreshold = 100
)

// Message is the user facing text for a reason.
func (r Reason) Message() string {
	switch r {
	case ReasonRequired:
		return "This field is required."
	case ReasonMustBeInteger:
		return "The minimum value must be a whole number."
	case ReasonOutOfRange:
		return fmt.Sprintf("The minimum value must be between %d and %d.", MinThreshold, MaxThreshold)
	}
	return ""
}

// Result holds the independent outcome of each field.
type Result struct {
	MinScore      Reason `json:"min_score_error,omitempty"`
	MinCompletion Reason `json:"min_completion_error,omitempty"`
}

// Validate checks both thresholds. An error on one field never hides an error on the other.
func Validate(minScore, minCompletion string) Result {
	return Result{
		MinScore:      ValidateThreshold(minScore),
		MinCompletion: ValidateThreshold(minCompletion),
	}
}

// ValidateThreshold checks a single raw threshold value.
func ValidateThreshold(raw string) Reason {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ReasonRequired
	}
	v, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return ReasonOutOfRange
	}
	if err != nil {
		return ReasonMustBeInteger
	}
	if v < MinThreshold || v > MaxThreshold {
		return ReasonOutOfRange
	}
	return ReasonNone
}

// SaveDisabled reports whether the save action must be blocked.
func (r Result) SaveDisabled() bool {
	return r.MinScore != ReasonNone || r.MinCompletion != ReasonNone
}

// Err returns nil when the result is valid, otherwise an error wrapping
// domain.ErrValidationFailed with one FieldError per invalid field.
func (r Result) Err() error {
	var errs []error
	if r.MinScore != ReasonNone {
		errs = append(errs, &FieldError{Field: FieldMinScore, Reason: r.MinScore})
	}
	if r.MinCompletion != ReasonNone {
		errs = append(errs, &FieldError{Field: FieldMinCompletion, Reason: r.MinCompletion})
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrValidationFailed, errors.Join(errs...))
}

// FieldError represents a single field validation failure.
type FieldError struct {
	Field  string
	Reason Reason
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason.Message())
}
