package outline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/outline/internal/logging"
	"github.com/aretw0/outline/pkg/coordinator"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/gating"
	"github.com/aretw0/outline/pkg/notify"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/aretw0/outline/pkg/tree"
	"github.com/aretw0/outline/pkg/visibility"
	"github.com/aretw0/outline/pkg/wire"
)

// ErrNoTransport is returned when an Editor is built without WithTransport.
var ErrNoTransport = errors.New("transport is required")

// Editor is the high-level entry point for editing a course outline.
// It owns the content tree and routes every mutation through the coordinator.
type Editor struct {
	tree     *tree.Tree
	coord    *coordinator.Coordinator
	calc     *visibility.Calculator
	notifier *notify.Orchestrator
	logger   *slog.Logger

	transport ports.Transport
	paths     ports.Paths
	hooks     domain.LifecycleHooks
	settings  domain.CourseSettings
	now       func() time.Time
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithTransport sets the connection to the remote authority.
func WithTransport(t ports.Transport) Option {
	return func(e *Editor) {
		e.transport = t
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithCourseSettings sets the course-wide flags used to derive visibility.
func WithCourseSettings(s domain.CourseSettings) Option {
	return func(e *Editor) {
		e.settings = s
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		e.now = now
	}
}

// WithPaths overrides the authority request paths.
func WithPaths(p ports.Paths) Option {
	return func(e *Editor) {
		e.paths = p
	}
}

// Open fetches the outline of courseID from the authority and returns an Editor over it.
func Open(ctx context.Context, courseID string, opts ...Option) (*Editor, error) {
	e := configure(opts)
	if e.transport == nil {
		return nil, ErrNoTransport
	}

	req := ports.Request{Method: http.MethodGet, Path: e.paths.Outline(courseID)}
	resp, err := e.transport.Do(ctx, req)
	if err != nil {
		return nil, &domain.RemoteError{
			Kind: domain.OpLoad, Stage: domain.StageRefresh, Method: req.Method, Path: req.Path,
			Err: domain.ErrTransportFailure, Cause: err,
		}
	}
	if !resp.OK() {
		return nil, &domain.RemoteError{
			Kind: domain.OpLoad, Stage: domain.StageRefresh, Method: req.Method, Path: req.Path,
			Status: resp.Status, Message: wire.ErrorMessage(resp.Body), Err: domain.ErrRemoteRejected,
		}
	}
	info, err := wire.DecodeXBlockInfo(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode outline: %w", err)
	}
	return e.build(info.Spec())
}

// New returns an Editor over an outline the caller already holds.
func New(root domain.NodeSpec, opts ...Option) (*Editor, error) {
	e := configure(opts)
	if e.transport == nil {
		return nil, ErrNoTransport
	}
	return e.build(root)
}

func configure(opts []Option) *Editor {
	e := &Editor{
		paths: wire.DefaultPaths(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	return e
}

func (e *Editor) build(root domain.NodeSpec) (*Editor, error) {
	t, err := tree.New(root)
	if err != nil {
		return nil, err
	}
	if _, err := t.PropagateStaffLock(root.ID); err != nil {
		return nil, err
	}
	if e.settings.ID == "" {
		e.settings.ID = root.ID
	}
	e.tree = t
	e.logger = e.logger.With("course_id", e.settings.ID)
	e.notifier = notify.New()
	e.calc = visibility.NewCalculator(e.settings, visibility.WithClock(e.now))
	e.coord = coordinator.New(t, e.transport,
		coordinator.WithPaths(e.paths),
		coordinator.WithNotifier(e.notifier),
		coordinator.WithLogger(e.logger),
		coordinator.WithHooks(e.hooks),
		coordinator.WithClock(e.now),
	)
	e.logger.Debug("editor ready", "nodes", t.Len())
	return e, nil
}

// Tree returns the content tree. Callers must not mutate it directly.
func (e *Editor) Tree() *tree.Tree {
	return e.tree
}

// Coordinator returns the underlying operation coordinator.
func (e *Editor) Coordinator() *coordinator.Coordinator {
	return e.coord
}

// Notifier returns the activity and error notifications.
func (e *Editor) Notifier() *notify.Orchestrator {
	return e.notifier
}

// Settings returns the course settings in effect.
func (e *Editor) Settings() domain.CourseSettings {
	return e.settings
}

// State returns the displayed visibility state of id.
func (e *Editor) State(id string) (domain.VisibilityState, error) {
	n, err := e.tree.GetNode(id)
	if err != nil {
		return "", err
	}
	return e.calc.State(n.Attributes), nil
}

// NodeState is State for a node already at hand.
func (e *Editor) NodeState(n domain.ContentNode) domain.VisibilityState {
	return e.calc.State(n.Attributes)
}

// SummaryState rolls the states of the loaded children of id into the state of id.
func (e *Editor) SummaryState(id string) (domain.VisibilityState, error) {
	self, err := e.State(id)
	if err != nil {
		return "", err
	}
	children, err := e.tree.ChildrenOf(id)
	if errors.Is(err, domain.ErrUnloaded) {
		return self, nil
	}
	if err != nil {
		return "", err
	}
	states := make([]domain.VisibilityState, 0, len(children))
	for _, c := range children {
		states = append(states, e.calc.State(c.Attributes))
	}
	return visibility.Rollup(self, states), nil
}

// Busy reports whether an operation is in flight for id.
func (e *Editor) Busy(id string) bool {
	return e.coord.Busy(id)
}

// Pending lists the operations in flight.
func (e *Editor) Pending() []domain.PendingOperation {
	return e.coord.Pending()
}

// Drain waits for all in-flight operations, including background refetches.
func (e *Editor) Drain(ctx context.Context) error {
	return e.coord.Drain(ctx)
}

// Move moves childID to index among the children of toParentID.
func (e *Editor) Move(ctx context.Context, childID, toParentID string, index int) (*coordinator.Operation, error) {
	n, err := e.tree.GetNode(childID)
	if err != nil {
		return nil, err
	}
	return e.coord.Move(ctx, coordinator.MoveIntent{
		ChildID:      childID,
		FromParentID: n.ParentID,
		ToParentID:   toParentID,
		Index:        index,
	})
}

// Reorder replaces the child order of parentID.
func (e *Editor) Reorder(ctx context.Context, parentID string, order []string) (*coordinator.Operation, error) {
	return e.coord.Reorder(ctx, parentID, order)
}

// Delete removes id and its descendants.
func (e *Editor) Delete(ctx context.Context, id string) (*coordinator.Operation, error) {
	return e.coord.Delete(ctx, id)
}

// Duplicate copies id next to itself.
func (e *Editor) Duplicate(ctx context.Context, id string) (*coordinator.Operation, error) {
	return e.coord.Duplicate(ctx, id)
}

// Create adds a child to parentID. Empty category and name take the defaults of the level.
func (e *Editor) Create(ctx context.Context, parentID string, category domain.Category, name string) (*coordinator.Operation, error) {
	return e.coord.Create(ctx, coordinator.CreateIntent{ParentID: parentID, Category: category, DisplayName: name})
}

// Publish makes id and its descendants public.
func (e *Editor) Publish(ctx context.Context, id string) (*coordinator.Operation, error) {
	return e.coord.Publish(ctx, id)
}

// DiscardChanges drops the unpublished changes of id.
func (e *Editor) DiscardChanges(ctx context.Context, id string) (*coordinator.Operation, error) {
	return e.coord.DiscardChanges(ctx, id)
}

// ToggleStaffLock flips the explicit staff lock of id.
func (e *Editor) ToggleStaffLock(ctx context.Context, id string) (*coordinator.Operation, error) {
	return e.coord.ToggleStaffLock(ctx, id)
}

// SetStaffLock sets the explicit staff lock of id.
func (e *Editor) SetStaffLock(ctx context.Context, id string, locked bool) (*coordinator.Operation, error) {
	return e.coord.SetStaffLock(ctx, id, locked)
}

// Rename changes the display name of id.
func (e *Editor) Rename(ctx context.Context, id, name string) (*coordinator.Operation, error) {
	return e.coord.Rename(ctx, id, name)
}

// Load fetches the children of an unloaded node.
func (e *Editor) Load(ctx context.Context, id string) (*coordinator.Operation, error) {
	return e.coord.Load(ctx, id)
}

// ConfigureGating validates the thresholds and saves the prerequisite settings of id.
// Invalid thresholds are reported without contacting the authority.
func (e *Editor) ConfigureGating(ctx context.Context, id string, s coordinator.GatingSettings) (*coordinator.Operation, error) {
	if s.PrerequisiteID != "" {
		if err := gating.Validate(s.MinScore, s.MinCompletion).Err(); err != nil {
			return nil, err
		}
	}
	return e.coord.Configure(ctx, id, s)
}

// OnTreeChanged registers l for confirmed structural changes and rollbacks.
func (e *Editor) OnTreeChanged(l coordinator.TreeListener) func() {
	return e.coord.OnTreeChanged(l)
}

// OnOptimisticChange registers l for optimistic structural changes.
func (e *Editor) OnOptimisticChange(l coordinator.TreeListener) func() {
	return e.coord.OnOptimisticChange(l)
}

// OnAttributesChanged registers l for attribute replacements of nodeID.
func (e *Editor) OnAttributesChanged(nodeID string, l coordinator.AttributesListener) func() {
	return e.coord.OnAttributesChanged(nodeID, l)
}

// OnActivityChanged registers l for activity indicator changes.
func (e *Editor) OnActivityChanged(l notify.ActivityListener) func() {
	return e.notifier.OnActivityChanged(l)
}

// OnError registers l for user-facing error notifications.
func (e *Editor) OnError(l notify.ErrorListener) func() {
	return e.notifier.OnError(l)
}
