package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/outline/internal/logging"
	"github.com/aretw0/outline/pkg/authority"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go openapi.yaml

// MethodOverrideHeader lets clients tunnel PATCH and DELETE through POST.
const MethodOverrideHeader = "X-HTTP-Method-Override"

// Authority defines the operations exposed over HTTP.
type Authority interface {
	Node(ctx context.Context, id string) (wire.XBlockInfo, error)
	Outline(ctx context.Context, id string) (wire.XBlockInfo, error)
	Update(ctx context.Context, id string, p wire.PatchRequest) (wire.XBlockInfo, error)
	Create(ctx context.Context, req wire.CreateRequest) (wire.CreateResponse, error)
	Delete(ctx context.Context, id string) error
}

// Server implements the generated ServerInterface.
type Server struct {
	Authority Authority
	Streams   *StreamManager
	Logger    *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// HandlerOption configures NewHandler.
type HandlerOption func(*Server)

// WithStreams shares a StreamManager, typically one registered as an authority observer.
func WithStreams(sm *StreamManager) HandlerOption {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger configures request logging.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		s.Logger = logger
	}
}

// ValidateSpec loads and validates the OpenAPI document the routes were generated from.
func ValidateSpec(ctx context.Context) (*openapi3.T, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates a new HTTP handler for the authority.
func NewHandler(a Authority, opts ...HandlerOption) http.Handler {
	s := &Server{
		Authority: a,
		Logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}

	r := chi.NewRouter()
	r.Use(methodOverride)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.Logger.Error("failed to load openapi spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	handler := HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.writeError(w, r, fmt.Errorf("%w: %w", authority.ErrInvalid, err))
		},
	})
	return enableCORS(handler)
}

// methodOverride turns POST + X-HTTP-Method-Override into the named method before routing.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch m := strings.ToUpper(r.Header.Get(MethodOverrideHeader)); m {
			case http.MethodPatch, http.MethodPut, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+MethodOverrideHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Outline API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOutline handles GET /xblock/outline/{id}.
func (s *Server) GetOutline(w http.ResponseWriter, r *http.Request, id string) {
	info, err := s.Authority.Outline(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetBlock handles GET /xblock/{id}.
func (s *Server) GetBlock(w http.ResponseWriter, r *http.Request, id string) {
	info, err := s.Authority.Node(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// PatchBlock handles PATCH /xblock/{id}.
func (s *Server) PatchBlock(w http.ResponseWriter, r *http.Request, id string) {
	var body PatchBlockJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed body", authority.ErrInvalid))
		return
	}
	info, err := s.Authority.Update(r.Context(), id, mapPatchRequest(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CreateBlock handles POST /xblock/.
func (s *Server) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var body CreateBlockJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed body", authority.ErrInvalid))
		return
	}
	created, err := s.Authority.Create(r.Context(), mapCreateRequest(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := CreateResponse{Locator: created.Locator}
	if created.CourseKey != "" {
		resp.CourseKey = &created.CourseKey
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteBlock handles DELETE /xblock/{id}.
func (s *Server) DeleteBlock(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Authority.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapPatchRequest(body PatchRequest) wire.PatchRequest {
	p := wire.PatchRequest{
		Children:            body.Children,
		IsPrereq:            body.IsPrereq,
		PrereqUsageKey:      body.PrereqUsageKey,
		PrereqMinScore:      body.PrereqMinScore,
		PrereqMinCompletion: body.PrereqMinCompletion,
	}
	if body.Publish != nil {
		p.Publish = string(*body.Publish)
	}
	if body.Metadata != nil {
		p.Metadata = wire.Metadata(*body.Metadata)
	}
	return p
}

func mapCreateRequest(body CreateRequest) wire.CreateRequest {
	req := wire.CreateRequest{
		ParentLocator:          body.ParentLocator,
		DisplayName:            deref(body.DisplayName),
		Boilerplate:            deref(body.Boilerplate),
		DuplicateSourceLocator: deref(body.DuplicateSourceLocator),
	}
	if body.Category != nil {
		req.Category = string(*body.Category)
	}
	return req
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, authority.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNodeNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.Logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

// StreamManager handles active SSE connections, keyed by course.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(courseID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[courseID]; !ok {
		sm.subscribers[courseID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[courseID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[courseID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, courseID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(courseID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[courseID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "course_id", courseID)
		}
	}
}

// Publish broadcasts an authority change; it has the signature of authority.WithObserver.
func (sm *StreamManager) Publish(c authority.Change) {
	bytes, err := json.Marshal(c)
	if err != nil {
		return
	}
	sm.Broadcast(c.CourseID, string(bytes))
}

// SubscribeEvents handles GET /xblock/events/{courseId} (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, courseID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	ch, cancel := s.Streams.Subscribe(courseID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Debug("SSE: subscribed", "course_id", courseID)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
