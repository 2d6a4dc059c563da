package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOperationInProgress is returned when a node (or an affected parent) already has
	// a structural operation in flight. The gesture is rejected, never queued.
	ErrOperationInProgress = errors.New("operation in progress")

	// ErrInvariantViolation signals a failed internal consistency check (e.g. a reorder
	// payload that is not a permutation). It is a programming error, not a user error.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrRemoteRejected is returned when the remote authority answers with a non-2xx status.
	ErrRemoteRejected = errors.New("remote rejected")

	// ErrTransportFailure is returned when the request never produced a response (network, timeout).
	ErrTransportFailure = errors.New("transport failure")

	// ErrValidationFailed is returned by client-side validators; it never reaches the coordinator.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNodeNotFound is returned when a node ID is unknown.
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnloaded is returned when the children of a node have not been fetched yet.
	ErrUnloaded = errors.New("children not loaded")
)

// InvariantError describes which defensive check failed.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariantViolation, e.Op, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// Invariant builds an InvariantError with a formatted detail.
func Invariant(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Stage identifies which request of an operation failed.
type Stage string

const (
	StagePrimary Stage = "primary" // the first (or only) mutating request
	StageSource  Stage = "source"  // second phase of a cross-parent move
	StageRefresh Stage = "refresh" // confirmation fetch after a successful mutation
)

// RemoteError wraps a failed remote call.
// It unwraps to ErrRemoteRejected or ErrTransportFailure, and to the transport cause if any.
type RemoteError struct {
	Kind    OperationKind
	Stage   Stage
	Method  string
	Path    string
	Status  int    // 0 when no response was received
	Message string // server provided message, if any
	Err     error  // ErrRemoteRejected or ErrTransportFailure
	Cause   error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %s", e.Method, e.Path, e.Err, e.Status, e.UserMessage())
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Err, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// UserMessage returns the server message when present, otherwise a generic message for the operation.
// Transport failures always use the generic message.
func (e *RemoteError) UserMessage() string {
	if e.Message != "" && !errors.Is(e.Err, ErrTransportFailure) {
		return e.Message
	}
	if e.Stage == StageRefresh {
		return "Could not refresh item"
	}
	return e.Kind.FailureMessage()
}
