package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/outline/pkg/ports"
)

// maxResponseBytes bounds the body read from the authority.
const maxResponseBytes = 16 << 20

// Client implements ports.Transport over HTTP with JSON bodies.
type Client struct {
	base           string
	http           *http.Client
	methodOverride bool
	headers        http.Header
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMethodOverride sends PATCH and DELETE as POST with the X-HTTP-Method-Override header.
func WithMethodOverride(enabled bool) ClientOption {
	return func(c *Client) {
		c.methodOverride = enabled
	}
}

// WithHeader adds a header to every request, e.g. a CSRF token.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// NewClient creates a transport for the authority served at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.Transport = (*Client)(nil)

// Do sends req. Only failures to obtain a response are returned as errors.
func (c *Client) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if c.methodOverride && (method == http.MethodPatch || method == http.MethodDelete) {
		method = http.MethodPost
	}
	hr, err := http.NewRequestWithContext(ctx, method, c.base+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("Accept", "application/json")
	if body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	if method != req.Method {
		hr.Header.Set(MethodOverrideHeader, req.Method)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &ports.Response{Status: resp.StatusCode, Body: data}, nil
}
