package domain

// OperationKind names a structural operation.
type OperationKind string

const (
	OpMove            OperationKind = "move"
	OpReorder         OperationKind = "reorder"
	OpDelete          OperationKind = "delete"
	OpDuplicate       OperationKind = "duplicate"
	OpCreate          OperationKind = "create"
	OpPublish         OperationKind = "publish"
	OpDiscardChanges  OperationKind = "discardChanges"
	OpToggleStaffLock OperationKind = "toggleStaffLock"
	OpRename          OperationKind = "rename"
	OpConfigure       OperationKind = "configure"
	OpLoad            OperationKind = "load"
)

// Activity returns the notification category the operation is reported under.
// Loads have no progress indicator and return "".
func (k OperationKind) Activity() Activity {
	switch k {
	case OpLoad:
		return ""
	case OpDelete:
		return ActivityDeleting
	case OpDuplicate:
		return ActivityDuplicating
	case OpCreate:
		return ActivityCreating
	case OpPublish, OpDiscardChanges:
		return ActivityPublishing
	default:
		return ActivitySaving
	}
}

// FailureMessage is the generic message shown when the server gave none.
func (k OperationKind) FailureMessage() string {
	switch k {
	case OpMove, OpReorder:
		return "Could not move item"
	case OpDelete:
		return "Could not delete item"
	case OpDuplicate:
		return "Could not duplicate item"
	case OpCreate:
		return "Could not create item"
	case OpPublish:
		return "Could not publish item"
	case OpDiscardChanges:
		return "Could not discard changes"
	case OpToggleStaffLock:
		return "Could not change visibility"
	case OpRename:
		return "Could not rename item"
	case OpConfigure:
		return "Could not save settings"
	case OpLoad:
		return "Could not load item"
	default:
		return "Could not save changes"
	}
}

// Activity is a user-visible progress category.
type Activity string

const (
	ActivitySaving      Activity = "saving"
	ActivityDeleting    Activity = "deleting"
	ActivityDuplicating Activity = "duplicating"
	ActivityCreating    Activity = "creating"
	ActivityPublishing  Activity = "publishing"
)

// Activities lists every activity in display order.
var Activities = []Activity{
	ActivitySaving,
	ActivityDeleting,
	ActivityDuplicating,
	ActivityCreating,
	ActivityPublishing,
}

// Label is the text shown while the activity is in flight.
func (a Activity) Label() string {
	switch a {
	case ActivitySaving:
		return "Saving"
	case ActivityDeleting:
		return "Deleting"
	case ActivityDuplicating:
		return "Duplicating"
	case ActivityCreating:
		return "Creating"
	case ActivityPublishing:
		return "Publishing"
	}
	return string(a)
}

// PendingOperation is the record of an in-flight structural operation.
// Snapshot holds the child order of every affected parent as it was before the
// optimistic apply, so a failure can restore it exactly.
type PendingOperation struct {
	ID                string              `json:"id"`
	Kind              OperationKind       `json:"kind"`
	TargetNodeID      string              `json:"target_node_id"`
	AffectedParentIDs []string            `json:"affected_parent_ids"`
	Snapshot          map[string][]string `json:"snapshot,omitempty"`
}

// CourseSettings carries course-wide flags that influence derived state.
type CourseSettings struct {
	ID           string `json:"id" yaml:"id" toml:"id"`
	SelfPaced    bool   `json:"self_paced" yaml:"self_paced" toml:"self_paced"`
	CustomPacing bool   `json:"custom_pacing" yaml:"custom_pacing" toml:"custom_pacing"`
}
