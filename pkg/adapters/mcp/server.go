// Package mcp exposes outline tooling as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/outline"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/gating"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/aretw0/outline/pkg/visibility"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// OutlineSource fetches a node with its subtree.
type OutlineSource interface {
	Outline(ctx context.Context, id string) (wire.XBlockInfo, error)
}

// VisibilityResponse is the result of compute_visibility.
type VisibilityResponse struct {
	State    domain.VisibilityState `json:"state" jsonschema_description:"Locally computed visibility state"`
	WireName string                 `json:"wire_name" jsonschema_description:"Name of the state in the authority protocol"`
}

// GatingArgs are the arguments of validate_gating.
type GatingArgs struct {
	MinScore      string `json:"min_score"`
	MinCompletion string `json:"min_completion"`
}

// GatingResponse is the result of validate_gating.
type GatingResponse struct {
	gating.Result
	SaveDisabled bool              `json:"save_disabled" jsonschema_description:"True when the settings cannot be saved"`
	Messages     map[string]string `json:"messages,omitempty" jsonschema_description:"User facing message per invalid field"`
}

// OutlineArgs are the arguments of get_outline.
type OutlineArgs struct {
	ID string `json:"id"`
}

// Server exposes the outline tools over MCP.
type Server struct {
	source    OutlineSource
	settings  domain.CourseSettings
	now       func() time.Time
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCourseSettings sets the pacing used by compute_visibility.
func WithCourseSettings(settings domain.CourseSettings) Option {
	return func(s *Server) {
		s.settings = settings
	}
}

// WithClock overrides the default evaluation time of compute_visibility.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a new MCP Server. get_outline is only registered when source is not nil.
func NewServer(source OutlineSource, opts ...Option) *Server {
	s := &Server{
		source:    source,
		now:       time.Now,
		mcpServer: server.NewMCPServer("outline-mcp", strings.TrimSpace(outline.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("compute_visibility",
		mcp.WithDescription("Compute the visibility state of a node from its attributes, as the outline editor would display it."),
		mcp.WithString("attributes", mcp.Required(), mcp.Description("JSON object with node fields (published, has_changes, start, has_explicit_staff_lock, ancestor_has_staff_lock, visibility_state, ...)")),
		mcp.WithString("now", mcp.Description("Evaluation time in RFC 3339 (defaults to the current time)")),
		mcp.WithBoolean("self_paced", mcp.Description("Whether the course is self-paced")),
		mcp.WithOutputSchema[VisibilityResponse](),
	), mcp.NewStructuredToolHandler(s.handleComputeVisibility))

	s.mcpServer.AddTool(mcp.NewTool("validate_gating",
		mcp.WithDescription("Validate prerequisite thresholds. Both values must be whole numbers between 0 and 100."),
		mcp.WithString("min_score", mcp.Description("Minimum score")),
		mcp.WithString("min_completion", mcp.Description("Minimum completion")),
		mcp.WithOutputSchema[GatingResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidateGating))

	if s.source == nil {
		return
	}
	s.mcpServer.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("Fetch a node of the course outline with its whole subtree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Locator of the node")),
	), mcp.NewStructuredToolHandler(s.handleGetOutline))
}

func (s *Server) handleComputeVisibility(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (VisibilityResponse, error) {
	raw, _ := args["attributes"].(string)
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return VisibilityResponse{}, fmt.Errorf("attributes must be a JSON object: %w", err)
	}
	if _, ok := fields["id"]; !ok {
		fields["id"] = "node"
	}
	info, err := wire.DecodeXBlockMap(fields)
	if err != nil {
		return VisibilityResponse{}, err
	}

	now := s.now()
	if ts, ok := args["now"].(string); ok && ts != "" {
		if now, err = time.Parse(time.RFC3339, ts); err != nil {
			return VisibilityResponse{}, fmt.Errorf("invalid now: %w", err)
		}
	}
	settings := s.settings
	if sp, ok := args["self_paced"].(bool); ok {
		settings.SelfPaced = sp
	}

	state := visibility.NewCalculator(settings).StateAt(info.Attributes(), now)
	return VisibilityResponse{State: state, WireName: state.WireName()}, nil
}

func (s *Server) handleValidateGating(ctx context.Context, request mcp.CallToolRequest, args GatingArgs) (GatingResponse, error) {
	res := gating.Validate(args.MinScore, args.MinCompletion)
	out := GatingResponse{Result: res, SaveDisabled: res.SaveDisabled()}
	for field, reason := range map[string]gating.Reason{
		gating.FieldMinScore:      res.MinScore,
		gating.FieldMinCompletion: res.MinCompletion,
	} {
		if reason == gating.ReasonNone {
			continue
		}
		if out.Messages == nil {
			out.Messages = make(map[string]string)
		}
		out.Messages[field] = reason.Message()
	}
	return out, nil
}

func (s *Server) handleGetOutline(ctx context.Context, request mcp.CallToolRequest, args OutlineArgs) (wire.XBlockInfo, error) {
	if args.ID == "" {
		return wire.XBlockInfo{}, fmt.Errorf("id is required")
	}
	info, err := s.source.Outline(ctx, args.ID)
	if err != nil {
		return wire.XBlockInfo{}, fmt.Errorf("get outline failed: %w", err)
	}
	return info, nil
}

// TransportSource fetches outlines from a remote authority.
func TransportSource(t ports.Transport, paths ports.Paths) OutlineSource {
	return transportSource{t: t, paths: paths}
}

type transportSource struct {
	t     ports.Transport
	paths ports.Paths
}

func (ts transportSource) Outline(ctx context.Context, id string) (wire.XBlockInfo, error) {
	resp, err := ts.t.Do(ctx, ports.Request{Method: http.MethodGet, Path: ts.paths.Outline(id)})
	if err != nil {
		return wire.XBlockInfo{}, fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	if !resp.OK() {
		msg := wire.ErrorMessage(resp.Body)
		if msg == "" {
			msg = http.StatusText(resp.Status)
		}
		return wire.XBlockInfo{}, fmt.Errorf("%w: %s", domain.ErrRemoteRejected, msg)
	}
	return wire.DecodeXBlockInfo(resp.Body)
}
