package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/gating"
	"github.com/aretw0/outline/pkg/visibility"
)

// StateFromFile computes the visibility state of the node described in path at now.
func StateFromFile(path string, settings domain.CourseSettings, now time.Time) (domain.VisibilityState, error) {
	info, err := LoadNodeFile(path)
	if err != nil {
		return "", err
	}
	return visibility.NewCalculator(settings).StateAt(info.Attributes(), now), nil
}

// WriteGating validates the thresholds and prints one line per field.
// It returns the validation error so the command can exit non-zero.
func WriteGating(w io.Writer, minScore, minCompletion string) error {
	res := gating.Validate(minScore, minCompletion)
	for _, f := range []struct {
		name   string
		reason gating.Reason
	}{
		{gating.FieldMinScore, res.MinScore},
		{gating.FieldMinCompletion, res.MinCompletion},
	} {
		if f.reason == gating.ReasonNone {
			fmt.Fprintf(w, "%s: ok\n", f.name)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", f.name, f.reason.Message())
	}
	return res.Err()
}
