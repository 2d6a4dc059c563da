package domain

// VisibilityState is the derived display state of a node.
type VisibilityState string

const (
	StateUnscheduled    VisibilityState = "unscheduled"
	StateScheduled      VisibilityState = "scheduled"
	StateLive           VisibilityState = "live"
	StateNeedsAttention VisibilityState = "needsAttention"
	StateStaffOnly      VisibilityState = "staffOnly"
	StateGated          VisibilityState = "gated"
)

var wireNames = map[VisibilityState]string{
	StateUnscheduled:    "unscheduled",
	StateScheduled:      "ready",
	StateLive:           "live",
	StateNeedsAttention: "needs_attention",
	StateStaffOnly:      "staff_only",
	StateGated:          "gated",
}

// WireName returns the name used by the remote authority.
func (s VisibilityState) WireName() string {
	return wireNames[s]
}

// ParseVisibilityState maps a wire name (or a local name) to a state.
// Unknown names, including "hide_from_toc", yield ok=false.
func ParseVisibilityState(name string) (VisibilityState, bool) {
	for state, wire := range wireNames {
		if name == wire || name == string(state) {
			return state, true
		}
	}
	return "", false
}
