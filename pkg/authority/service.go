// Package authority is the server side source of truth for course outlines.
// It stores nodes through a ports.ContentStore, applies the outline editing
// protocol and renders nodes with their derived fields (inherited staff lock,
// inherited release date, candidate prerequisites and visibility state).
package authority

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/outline/internal/logging"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/aretw0/outline/pkg/visibility"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/oklog/ulid/v2"
)

// ErrInvalid is returned when a request is well formed but not allowed.
var ErrInvalid = errors.New("invalid request")

// maxDepth bounds ancestor walks over a possibly corrupted store.
const maxDepth = 32

// Action names a kind of change reported to observers.
type Action string

const (
	ActionImported Action = "imported"
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
)

// Change describes a committed write.
type Change struct {
	CourseID string `json:"course_id"`
	NodeID   string `json:"node_id"`
	Action   Action `json:"action"`
}

// Service applies outline requests to a content store.
type Service struct {
	store    ports.ContentStore
	settings domain.CourseSettings
	calc     *visibility.Calculator
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.Mutex
	locks   map[string]*lockEntry
	locker  ports.DistributedLocker
	lockTTL time.Duration

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy

	observers []func(Change)
}

// Option configures the Service.
type Option func(*Service)

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for visibility and locators.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCourseSettings sets the pacing used to compute visibility states.
func WithCourseSettings(settings domain.CourseSettings) Option {
	return func(s *Service) {
		s.settings = settings
	}
}

// WithObserver registers fn to be called after every committed write.
func WithObserver(fn func(Change)) Option {
	return func(s *Service) {
		s.observers = append(s.observers, fn)
	}
}

// New creates a Service over store.
func New(store ports.ContentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		now:     time.Now,
		logger:  logging.NewNop(),
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.calc = visibility.NewCalculator(s.settings, visibility.WithClock(s.now))
	return s
}

// Settings returns the course settings of the service.
func (s *Service) Settings() domain.CourseSettings {
	return s.settings
}

// Import stores a whole subtree, replacing nodes with the same ids. The imported root has no parent.
func (s *Service) Import(ctx context.Context, spec domain.NodeSpec) error {
	if err := validateSpec(spec, map[string]bool{}); err != nil {
		return err
	}
	err := s.withLock(ctx, spec.ID, func(ctx context.Context) error {
		return s.saveSpec(ctx, "", spec)
	})
	if err != nil {
		return err
	}
	s.logger.Info("outline imported", "course_id", spec.ID)
	s.notify(Change{CourseID: spec.ID, NodeID: spec.ID, Action: ActionImported})
	return nil
}

func validateSpec(spec domain.NodeSpec, seen map[string]bool) error {
	if spec.ID == "" {
		return fmt.Errorf("%w: node without id", ErrInvalid)
	}
	if seen[spec.ID] {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalid, spec.ID)
	}
	seen[spec.ID] = true
	if !spec.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, spec.Category)
	}
	for _, c := range spec.Children {
		if !spec.Category.CanContain(c.Category) {
			return fmt.Errorf("%w: %s cannot contain %s", ErrInvalid, spec.Category, c.Category)
		}
		if err := validateSpec(c, seen); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) saveSpec(ctx context.Context, parentID string, spec domain.NodeSpec) error {
	node := domain.StoredNode{
		ID:         spec.ID,
		Category:   spec.Category,
		ParentID:   parentID,
		Children:   make([]string, 0, len(spec.Children)),
		Attributes: stripDerived(spec.Attributes),
	}
	for _, c := range spec.Children {
		node.Children = append(node.Children, c.ID)
	}
	if err := s.store.Save(ctx, node); err != nil {
		return fmt.Errorf("failed to save %s: %w", spec.ID, err)
	}
	for _, c := range spec.Children {
		if err := s.saveSpec(ctx, spec.ID, c); err != nil {
			return err
		}
	}
	return nil
}

// stripDerived drops the fields that are computed on every render.
func stripDerived(a domain.NodeAttributes) domain.NodeAttributes {
	out := a.Clone()
	out.AncestorStaffLock = false
	out.StaffLockSource = ""
	out.ReleaseSource = ""
	out.Prerequisites = nil
	out.VisibilityStateFromServer = ""
	return out
}

// Node renders a single node without its children.
func (s *Service) Node(ctx context.Context, id string) (wire.XBlockInfo, error) {
	n, root, in, err := s.locate(ctx, id)
	if err != nil {
		return wire.XBlockInfo{}, err
	}
	var prereqs []wire.PrereqInfo
	if n.Category == domain.CategorySequential {
		if prereqs, err = s.prerequisites(ctx, root); err != nil {
			return wire.XBlockInfo{}, err
		}
	}
	return s.render(n, in, prereqs), nil
}

// Outline renders a node with its whole subtree.
func (s *Service) Outline(ctx context.Context, id string) (wire.XBlockInfo, error) {
	n, root, in, err := s.locate(ctx, id)
	if err != nil {
		return wire.XBlockInfo{}, err
	}
	prereqs, err := s.prerequisites(ctx, root)
	if err != nil {
		return wire.XBlockInfo{}, err
	}
	return s.renderTree(ctx, n, in, prereqs, 0)
}

// inherited carries the fields a node receives from its ancestors.
type inherited struct {
	locked      bool
	lockFrom    string
	release     *time.Time
	releaseFrom string
}

// below returns what the children of parent inherit. Nearer ancestors win.
func (in inherited) below(parent domain.StoredNode) inherited {
	out := in
	if parent.Attributes.ExplicitStaffLock {
		out.locked = true
		out.lockFrom = parent.Attributes.DisplayName
	}
	if parent.Attributes.ReleaseDate != nil {
		out.release = parent.Attributes.ReleaseDate
		out.releaseFrom = parent.Attributes.DisplayName
	}
	return out
}

// locate loads id, the id of its course root and what it inherits from its ancestors.
func (s *Service) locate(ctx context.Context, id string) (domain.StoredNode, string, inherited, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.StoredNode{}, "", inherited{}, err
	}
	var chain []domain.StoredNode
	cur := n
	for cur.ParentID != "" {
		if len(chain) > maxDepth {
			return domain.StoredNode{}, "", inherited{}, domain.Invariant("locate", "ancestor chain of %s is too deep", id)
		}
		parent, err := s.store.Get(ctx, cur.ParentID)
		if err != nil {
			return domain.StoredNode{}, "", inherited{}, fmt.Errorf("parent of %s: %w", cur.ID, err)
		}
		chain = append(chain, parent)
		cur = parent
	}
	var in inherited
	for i := len(chain) - 1; i >= 0; i-- {
		in = in.below(chain[i])
	}
	return n, cur.ID, in, nil
}

func (s *Service) rootOf(ctx context.Context, id string) (string, error) {
	_, root, _, err := s.locate(ctx, id)
	return root, err
}

// prerequisites lists the subsections of a course that are marked as prerequisites.
func (s *Service) prerequisites(ctx context.Context, root string) ([]wire.PrereqInfo, error) {
	var out []wire.PrereqInfo
	err := s.walk(ctx, root, func(n domain.StoredNode) {
		if n.Category == domain.CategorySequential && n.Attributes.IsPrerequisite {
			out = append(out, wire.PrereqInfo{BlockUsageKey: n.ID, BlockDisplayName: n.Attributes.DisplayName})
		}
	})
	return out, err
}

// walk visits id and its descendants in pre-order.
func (s *Service) walk(ctx context.Context, id string, fn func(domain.StoredNode)) error {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(n)
	for _, c := range n.Children {
		if err := s.walk(ctx, c, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) render(n domain.StoredNode, in inherited, prereqs []wire.PrereqInfo) wire.XBlockInfo {
	x := wire.FromStored(n)
	x.AncestorHasStaffLock = in.locked
	x.StaffLockFrom = in.lockFrom
	if x.Start == nil && in.release != nil {
		v := *in.release
		x.Start = &v
		x.ReleaseDateFrom = in.releaseFrom
	}
	if n.Category == domain.CategorySequential {
		for _, p := range prereqs {
			if p.BlockUsageKey != n.ID {
				x.Prereqs = append(x.Prereqs, p)
			}
		}
	}
	state := domain.StateGated
	if n.Attributes.SelectedPrerequisiteID == "" {
		state = s.calc.State(x.Attributes())
	}
	x.VisibilityState = state.WireName()
	return x
}

func (s *Service) renderTree(ctx context.Context, n domain.StoredNode, in inherited, prereqs []wire.PrereqInfo, depth int) (wire.XBlockInfo, error) {
	if depth > maxDepth {
		return wire.XBlockInfo{}, domain.Invariant("outline", "subtree of %s is too deep", n.ID)
	}
	x := s.render(n, in, prereqs)
	info := &wire.ChildInfo{Children: make([]wire.XBlockInfo, 0, len(n.Children))}
	if next, ok := n.Category.ChildCategory(); ok {
		info.Category = string(next)
		info.DisplayName = next.DefaultDisplayName()
	}
	childIn := in.below(n)
	for _, id := range n.Children {
		c, err := s.store.Get(ctx, id)
		if err != nil {
			return wire.XBlockInfo{}, fmt.Errorf("child %s of %s: %w", id, n.ID, err)
		}
		cx, err := s.renderTree(ctx, c, childIn, prereqs, depth+1)
		if err != nil {
			return wire.XBlockInfo{}, err
		}
		info.Children = append(info.Children, cx)
	}
	x.ChildInfo = info
	return x, nil
}

func (s *Service) notify(c Change) {
	for _, fn := range s.observers {
		fn(c)
	}
}

func (s *Service) newID(category domain.Category) (string, error) {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to allocate locator: %w", err)
	}
	return fmt.Sprintf("%s@%s", category, strings.ToLower(id.String())), nil
}

func (s *Service) save(ctx context.Context, nodes ...domain.StoredNode) error {
	for _, n := range nodes {
		if err := s.store.Save(ctx, n); err != nil {
			return fmt.Errorf("failed to save %s: %w", n.ID, err)
		}
	}
	return nil
}

// markChanged records an unpublished change on published content.
func markChanged(a *domain.NodeAttributes) {
	if a.Published {
		a.HasChanges = true
	}
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
}
