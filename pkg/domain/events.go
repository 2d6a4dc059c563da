package domain

import (
	"context"
	"time"
)

// ChangeReason explains why the tree emitted a change.
type ChangeReason string

const (
	ReasonOptimistic ChangeReason = "optimistic"
	ReasonConfirmed  ChangeReason = "confirmed"
	ReasonRollback   ChangeReason = "rollback"
	ReasonRefresh    ChangeReason = "refresh"
)

// TreeChange describes a settled or optimistic change of the outline structure.
type TreeChange struct {
	Reason      ChangeReason  `json:"reason"`
	OperationID string        `json:"operation_id,omitempty"`
	Kind        OperationKind `json:"kind,omitempty"`

	// ParentIDs lists the affected parents in the order they were processed.
	ParentIDs []string `json:"parent_ids"`

	// Parents holds the delta of each affected parent whose child order changed.
	Parents map[string]*ChildrenDiff `json:"parents,omitempty"`
}

// OperationEvent is reported to the lifecycle hooks.
type OperationEvent struct {
	Timestamp   time.Time     `json:"timestamp"`
	OperationID string        `json:"operation_id"`
	Kind        OperationKind `json:"kind"`
	TargetID    string        `json:"target_id"`
	Duration    time.Duration `json:"duration,omitempty"`
	Err         error         `json:"-"`
}

// LifecycleHooks defines callbacks for coordinator observability.
type LifecycleHooks struct {
	OnOperationStart func(context.Context, *OperationEvent)
	OnOperationEnd   func(context.Context, *OperationEvent)
	OnRollback       func(context.Context, *OperationEvent)
}
