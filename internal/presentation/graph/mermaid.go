package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/tree"
)

// StateFunc returns the visibility state displayed for a node.
type StateFunc func(domain.ContentNode) domain.VisibilityState

// GraphOverlay contains dynamic data to visualize on the graph.
type GraphOverlay struct {
	BusyNodes []string
	Selected  string
}

// stateStyles colors nodes by visibility state.
var stateStyles = []struct {
	state domain.VisibilityState
	style string
}{
	{domain.StateLive, "fill:#e8f5e9,stroke:#2e7d32,color:#000"},
	{domain.StateScheduled, "fill:#e3f2fd,stroke:#1565c0,color:#000"},
	{domain.StateUnscheduled, "fill:#f5f5f5,stroke:#757575,color:#000"},
	{domain.StateNeedsAttention, "fill:#fff8e1,stroke:#f9a825,color:#000"},
	{domain.StateStaffOnly, "fill:#212121,stroke:#000,color:#fff"},
	{domain.StateGated, "fill:#fce4ec,stroke:#ad1457,color:#000"},
}

// GenerateMermaid produces a Mermaid flowchart of the loaded outline.
// It applies semantic shapes per category:
// - Course: ((Circle))
// - Section: [[Subroutine]]
// - Subsection: [Rectangle]
// - Unit: [/Parallelogram/]
// - Component: (Rounded)
// Each node gets the class of its visibility state; overlay styles are applied last.
func GenerateMermaid(t *tree.Tree, state StateFunc, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	classes := make(map[domain.VisibilityState][]string)
	t.Walk(func(n domain.ContentNode, depth int) bool {
		safeID := sanitizeMermaidID(n.ID)
		opener, closer := shape(n.Category)

		label := strings.ReplaceAll(n.Attributes.DisplayName, "\"", "'")
		if !n.ChildrenLoaded {
			label += " <br/> …"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
		if n.ParentID != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(n.ParentID), safeID))
		}
		if state != nil {
			s := state(n)
			classes[s] = append(classes[s], safeID)
		}
		return true
	})

	if len(classes) > 0 {
		sb.WriteString("\n    %% Visibility Styles\n")
		for _, st := range stateStyles {
			ids := classes[st.state]
			if len(ids) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("    classDef %s %s;\n", st.state, st.style))
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", strings.Join(ids, ","), st.state))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef busy stroke-dasharray:5 5,stroke-width:3px;\n")
		sb.WriteString("    classDef selected stroke:#fbc02d,stroke-width:4px;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.BusyNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" && t.Contains(id) {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s busy;\n", safeID))
			}
		}
		if overlay.Selected != "" {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
		}
	}

	return sb.String()
}

func shape(c domain.Category) (string, string) {
	switch c {
	case domain.CategoryCourse:
		return "((", "))"
	case domain.CategoryChapter:
		return "[[", "]]"
	case domain.CategoryVertical:
		return "[/", "/]"
	case domain.CategoryComponent:
		return "(", ")"
	default:
		return "[", "]"
	}
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", "@", "_", ":", "_", "+", "_")
	return r.Replace(id)
}
