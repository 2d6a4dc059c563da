// Package tui renders outlines for the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/tree"
	"github.com/muesli/termenv"
)

// StateFunc returns the visibility state displayed for a node.
type StateFunc func(domain.ContentNode) domain.VisibilityState

var stateColors = map[domain.VisibilityState]string{
	domain.StateLive:           "#2e7d32",
	domain.StateScheduled:      "#1565c0",
	domain.StateUnscheduled:    "#757575",
	domain.StateNeedsAttention: "#f9a825",
	domain.StateStaffOnly:      "#9e9e9e",
	domain.StateGated:          "#ad1457",
}

var stateLabels = map[domain.VisibilityState]string{
	domain.StateLive:           "Live",
	domain.StateScheduled:      "Scheduled",
	domain.StateUnscheduled:    "Unscheduled",
	domain.StateNeedsAttention: "Unpublished changes",
	domain.StateStaffOnly:      "Staff only",
	domain.StateGated:          "Gated",
}

// Label returns the human readable name of a state.
func Label(s domain.VisibilityState) string {
	if l, ok := stateLabels[s]; ok {
		return l
	}
	return string(s)
}

// Badge renders a colored state label using the given profile.
// termenv.Ascii yields plain text.
func Badge(p termenv.Profile, s domain.VisibilityState) string {
	return termenv.String("[" + Label(s) + "]").Foreground(p.Color(stateColors[s])).String()
}

// OutlineMarkdown renders the loaded outline as a nested markdown list.
// Unloaded nodes are marked with an ellipsis; staff locks inherited from
// an ancestor name their source.
func OutlineMarkdown(t *tree.Tree, state StateFunc) string {
	var sb strings.Builder
	t.Walk(func(n domain.ContentNode, depth int) bool {
		if depth == 0 {
			fmt.Fprintf(&sb, "# %s\n\n", n.Attributes.DisplayName)
			return true
		}
		indent := strings.Repeat("  ", depth-1)
		line := fmt.Sprintf("%s- **%s** `%s`", indent, n.Attributes.DisplayName, n.Category)
		if state != nil {
			line += " _" + Label(state(n)) + "_"
		}
		if n.Attributes.AncestorStaffLock && n.Attributes.StaffLockSource != "" {
			line += fmt.Sprintf(" (locked by %s)", n.Attributes.StaffLockSource)
		}
		if !n.ChildrenLoaded && n.Category != domain.CategoryComponent {
			line += " …"
		}
		sb.WriteString(line + "\n")
		return true
	})
	return sb.String()
}

// OutlinePlain renders the loaded outline as indented text with colored state badges.
func OutlinePlain(p termenv.Profile, t *tree.Tree, state StateFunc) string {
	var sb strings.Builder
	t.Walk(func(n domain.ContentNode, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(n.Attributes.DisplayName)
		if state != nil {
			sb.WriteString(" " + Badge(p, state(n)))
		}
		sb.WriteString("\n")
		return true
	})
	return sb.String()
}

// RenderOutline renders the outline for display. Rich output goes through glamour;
// otherwise the plain listing is returned without colors.
func RenderOutline(t *tree.Tree, state StateFunc, rich bool) (string, error) {
	if !rich {
		return OutlinePlain(termenv.Ascii, t, state), nil
	}
	render, err := NewRenderer()
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return render(OutlineMarkdown(t, state))
}
