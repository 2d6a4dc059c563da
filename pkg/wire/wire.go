// Package wire defines the JSON shapes exchanged with the remote authority
// and their conversion to domain types.
package wire

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Prefix is the path prefix of every authority route.
const Prefix = "/xblock"

// DefaultPaths returns the request paths used by the reference authority.
func DefaultPaths() ports.Paths {
	return ports.PrefixPaths(Prefix)
}

// Publish actions.
const (
	PublishMakePublic     = "make_public"
	PublishDiscardChanges = "discard_changes"
	PublishRepublish      = "republish"
)

// Metadata keys understood by the authority.
const (
	MetaDisplayName        = "display_name"
	MetaVisibleToStaffOnly = "visible_to_staff_only"
	MetaStart              = "start"
	MetaDue                = "due"
	MetaHighlights         = "highlights"
)

// PrereqInfo is a candidate prerequisite subsection.
type PrereqInfo struct {
	BlockUsageKey    string `json:"block_usage_key" mapstructure:"block_usage_key"`
	BlockDisplayName string `json:"block_display_name" mapstructure:"block_display_name"`
}

// ChildInfo is present only when the children of a node were included in the response.
type ChildInfo struct {
	Category    string       `json:"category,omitempty" mapstructure:"category"`
	DisplayName string       `json:"display_name,omitempty" mapstructure:"display_name"`
	Children    []XBlockInfo `json:"children" mapstructure:"children"`
}

// XBlockInfo is the node representation returned by the authority.
type XBlockInfo struct {
	ID          string `json:"id" mapstructure:"id"`
	DisplayName string `json:"display_name" mapstructure:"display_name"`
	Category    string `json:"category" mapstructure:"category"`

	Published       bool       `json:"published" mapstructure:"published"`
	HasChanges      bool       `json:"has_changes" mapstructure:"has_changes"`
	Start           *time.Time `json:"start,omitempty" mapstructure:"start"`
	ReleaseDateFrom string     `json:"release_date_from,omitempty" mapstructure:"release_date_from"`
	Due             *time.Time `json:"due,omitempty" mapstructure:"due"`

	HasExplicitStaffLock bool   `json:"has_explicit_staff_lock" mapstructure:"has_explicit_staff_lock"`
	AncestorHasStaffLock bool   `json:"ancestor_has_staff_lock" mapstructure:"ancestor_has_staff_lock"`
	StaffLockFrom        string `json:"staff_lock_from,omitempty" mapstructure:"staff_lock_from"`

	IsPrereq            bool         `json:"is_prereq" mapstructure:"is_prereq"`
	Prereqs             []PrereqInfo `json:"prereqs,omitempty" mapstructure:"prereqs"`
	Prereq              string       `json:"prereq,omitempty" mapstructure:"prereq"`
	PrereqMinScore      string       `json:"prereq_min_score,omitempty" mapstructure:"prereq_min_score"`
	PrereqMinCompletion string       `json:"prereq_min_completion,omitempty" mapstructure:"prereq_min_completion"`

	Highlights      []string   `json:"highlights,omitempty" mapstructure:"highlights"`
	VisibilityState string     `json:"visibility_state,omitempty" mapstructure:"visibility_state"`
	ChildInfo       *ChildInfo `json:"child_info,omitempty" mapstructure:"child_info"`
}

// ChildrenPatch is the body of a reorder or move request: the complete authoritative order.
type ChildrenPatch struct {
	Children []string `json:"children"`
}

// NewChildrenPatch builds a patch, encoding an empty order as [] rather than null.
func NewChildrenPatch(order []string) ChildrenPatch {
	if order == nil {
		order = []string{}
	}
	return ChildrenPatch{Children: slices.Clone(order)}
}

// CreateRequest creates a new node, or duplicates one when DuplicateSourceLocator is set.
type CreateRequest struct {
	ParentLocator          string `json:"parent_locator"`
	Category               string `json:"category,omitempty"`
	DisplayName            string `json:"display_name,omitempty"`
	Boilerplate            string `json:"boilerplate,omitempty"`
	DuplicateSourceLocator string `json:"duplicate_source_locator,omitempty"`
}

// CreateResponse is returned by create and duplicate.
type CreateResponse struct {
	Locator   string `json:"locator"`
	CourseKey string `json:"courseKey,omitempty"`
}

// Metadata is a sparse set of field updates. A nil value clears the field.
type Metadata map[string]any

// PatchRequest updates a node. Absent fields are left untouched.
type PatchRequest struct {
	Children *[]string `json:"children,omitempty"`
	Publish  string    `json:"publish,omitempty"`
	Metadata Metadata  `json:"metadata,omitempty"`

	IsPrereq            *bool   `json:"isPrereq,omitempty"`
	PrereqUsageKey      *string `json:"prereqUsageKey,omitempty"`
	PrereqMinScore      *string `json:"prereqMinScore,omitempty"`
	PrereqMinCompletion *string `json:"prereqMinCompletion,omitempty"`
}

// PublishPatch builds a publish or discard request.
func PublishPatch(action string) PatchRequest {
	return PatchRequest{Publish: action}
}

// StaffLockPatch sets or clears the explicit staff lock. Clearing sends null.
func StaffLockPatch(locked bool) PatchRequest {
	var v any
	if locked {
		v = true
	}
	return PatchRequest{
		Publish:  PublishRepublish,
		Metadata: Metadata{MetaVisibleToStaffOnly: v},
	}
}

// RenamePatch changes the display name.
func RenamePatch(name string) PatchRequest {
	return PatchRequest{Metadata: Metadata{MetaDisplayName: name}}
}

// ErrorBody is the JSON error returned by the authority.
type ErrorBody struct {
	Error string `json:"error"`
}

// ErrorMessage extracts the server message from an error body, if any.
func ErrorMessage(body []byte) string {
	var e ErrorBody
	if len(body) == 0 || json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}

// DecodeXBlockInfo parses an authority response.
// Numeric thresholds are accepted and converted to their text form.
func DecodeXBlockInfo(body []byte) (XBlockInfo, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return XBlockInfo{}, fmt.Errorf("decode xblock info: %w", err)
	}
	return DecodeXBlockMap(raw)
}

// DecodeXBlockMap converts a generic map (JSON, YAML, MCP arguments) into an XBlockInfo.
func DecodeXBlockMap(raw map[string]any) (XBlockInfo, error) {
	dropEmptyDates(raw)
	var info XBlockInfo
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		Result:           &info,
	})
	if err != nil {
		return XBlockInfo{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return XBlockInfo{}, fmt.Errorf("decode xblock info: %w", err)
	}
	if info.ID == "" {
		return XBlockInfo{}, fmt.Errorf("decode xblock info: missing id")
	}
	return info, nil
}

func dropEmptyDates(raw map[string]any) {
	for _, key := range []string{"start", "due"} {
		if s, ok := raw[key].(string); ok && s == "" {
			delete(raw, key)
		}
	}
	info, ok := raw["child_info"].(map[string]any)
	if !ok {
		return
	}
	children, _ := info["children"].([]any)
	for _, c := range children {
		if m, ok := c.(map[string]any); ok {
			dropEmptyDates(m)
		}
	}
}

// Attributes converts the wire fields into domain attributes.
func (x XBlockInfo) Attributes() domain.NodeAttributes {
	attrs := domain.NodeAttributes{
		DisplayName:               x.DisplayName,
		Published:                 x.Published,
		HasChanges:                x.HasChanges,
		ReleaseDate:               x.Start,
		ReleaseSource:             x.ReleaseDateFrom,
		DueDate:                   x.Due,
		ExplicitStaffLock:         x.HasExplicitStaffLock,
		AncestorStaffLock:         x.AncestorHasStaffLock,
		StaffLockSource:           x.StaffLockFrom,
		IsPrerequisite:            x.IsPrereq,
		SelectedPrerequisiteID:    x.Prereq,
		PrerequisiteMinScore:      x.PrereqMinScore,
		PrerequisiteMinCompletion: x.PrereqMinCompletion,
		Highlights:                slices.Clone(x.Highlights),
	}
	for _, p := range x.Prereqs {
		attrs.Prerequisites = append(attrs.Prerequisites, domain.Prerequisite{ID: p.BlockUsageKey, Label: p.BlockDisplayName})
	}
	if state, ok := domain.ParseVisibilityState(x.VisibilityState); ok {
		attrs.VisibilityStateFromServer = state
	}
	return attrs.Clone()
}

// Spec converts the response into a node spec. Children are loaded only when child_info is present.
func (x XBlockInfo) Spec() domain.NodeSpec {
	spec := domain.NodeSpec{
		ID:         x.ID,
		Category:   domain.Category(x.Category),
		Attributes: x.Attributes(),
	}
	if x.ChildInfo != nil {
		spec.ChildrenLoaded = true
		spec.Children = make([]domain.NodeSpec, 0, len(x.ChildInfo.Children))
		for _, c := range x.ChildInfo.Children {
			spec.Children = append(spec.Children, c.Spec())
		}
	}
	return spec
}

// FromStored renders a stored node without children or server-derived state.
func FromStored(n domain.StoredNode) XBlockInfo {
	a := n.Attributes
	x := XBlockInfo{
		ID:                   n.ID,
		DisplayName:          a.DisplayName,
		Category:             string(n.Category),
		Published:            a.Published,
		HasChanges:           a.HasChanges,
		Start:                a.ReleaseDate,
		ReleaseDateFrom:      a.ReleaseSource,
		Due:                  a.DueDate,
		HasExplicitStaffLock: a.ExplicitStaffLock,
		AncestorHasStaffLock: a.AncestorStaffLock,
		StaffLockFrom:        a.StaffLockSource,
		IsPrereq:             a.IsPrerequisite,
		Prereq:               a.SelectedPrerequisiteID,
		PrereqMinScore:       a.PrerequisiteMinScore,
		PrereqMinCompletion:  a.PrerequisiteMinCompletion,
		Highlights:           slices.Clone(a.Highlights),
	}
	for _, p := range a.Prerequisites {
		x.Prereqs = append(x.Prereqs, PrereqInfo{BlockUsageKey: p.ID, BlockDisplayName: p.Label})
	}
	return x
}
