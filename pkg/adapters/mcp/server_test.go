package mcp

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/aretw0/outline/internal/testutils"
	"github.com/aretw0/outline/pkg/adapters/memory"
	"github.com/aretw0/outline/pkg/authority"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/aretw0/outline/pkg/gating"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestComputeVisibility(t *testing.T) {
	s := NewServer(nil, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]interface{}
		want domain.VisibilityState
	}{
		{"unpublished", map[string]interface{}{"attributes": `{}`}, domain.StateUnscheduled},
		{"released", map[string]interface{}{"attributes": `{"published":true,"start":"2025-01-01T00:00:00Z"}`}, domain.StateLive},
		{"future release", map[string]interface{}{"attributes": `{"published":true,"start":"2026-01-01T00:00:00Z"}`}, domain.StateScheduled},
		{"explicit now", map[string]interface{}{"attributes": `{"published":true,"start":"2026-01-01T00:00:00Z"}`, "now": "2027-01-01T00:00:00Z"}, domain.StateLive},
		{"self paced", map[string]interface{}{"attributes": `{"published":true}`, "self_paced": true}, domain.StateLive},
		{"server gated", map[string]interface{}{"attributes": `{"published":true,"visibility_state":"gated"}`}, domain.StateGated},
		{"lock wins over changes", map[string]interface{}{"attributes": `{"has_changes":true,"ancestor_has_staff_lock":true}`}, domain.StateStaffOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.handleComputeVisibility(ctx, mcp.CallToolRequest{}, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.State)
			assert.Equal(t, tt.want.WireName(), got.WireName)
		})
	}

	_, err := s.handleComputeVisibility(ctx, mcp.CallToolRequest{}, map[string]interface{}{"attributes": "not json"})
	assert.Error(t, err)
}

func TestValidateGating(t *testing.T) {
	s := NewServer(nil)

	res, err := s.handleValidateGating(context.Background(), mcp.CallToolRequest{}, GatingArgs{MinScore: "80", MinCompletion: "7.5"})
	require.NoError(t, err)
	assert.True(t, res.SaveDisabled)
	assert.Equal(t, gating.ReasonNone, res.MinScore)
	assert.Equal(t, gating.ReasonMustBeInteger, res.MinCompletion)
	assert.Equal(t, map[string]string{gating.FieldMinCompletion: gating.ReasonMustBeInteger.Message()}, res.Messages)

	res, err = s.handleValidateGating(context.Background(), mcp.CallToolRequest{}, GatingArgs{MinScore: "0", MinCompletion: "100"})
	require.NoError(t, err)
	assert.False(t, res.SaveDisabled)
	assert.Empty(t, res.Messages)
}

func TestGetOutline(t *testing.T) {
	svc := authority.New(memory.NewStore())
	require.NoError(t, svc.Import(context.Background(), testutils.Course()))
	s := NewServer(svc)

	info, err := s.handleGetOutline(context.Background(), mcp.CallToolRequest{}, OutlineArgs{ID: "B"})
	require.NoError(t, err)
	assert.Equal(t, "B", info.ID)
	require.NotNil(t, info.ChildInfo)
	assert.Len(t, info.ChildInfo.Children, 3)

	_, err = s.handleGetOutline(context.Background(), mcp.CallToolRequest{}, OutlineArgs{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestTransportSource(t *testing.T) {
	ft := testutils.NewAutoTransport(func(req ports.Request) (*ports.Response, error) {
		if req.Path == "/xblock/outline/A" {
			return &ports.Response{Status: http.StatusOK, Body: []byte(`{"id":"A","display_name":"A","category":"chapter","child_info":{"children":[]}}`)}, nil
		}
		return &ports.Response{Status: http.StatusNotFound, Body: []byte(`{"error":"no such node"}`)}, nil
	})
	src := TransportSource(ft, wire.DefaultPaths())

	info, err := src.Outline(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", info.ID)

	_, err = src.Outline(context.Background(), "Z")
	assert.ErrorIs(t, err, domain.ErrRemoteRejected)
	assert.Contains(t, err.Error(), "no such node")
}
