package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/outline/pkg/ports"
	"github.com/stretchr/testify/require"
)

// Call is a request captured by FakeTransport, waiting for the test to resolve it.
type Call struct {
	Request ports.Request
	reply   chan reply
}

type reply struct {
	resp *ports.Response
	err  error
}

// Respond resolves the call with a status and a JSON body (nil for an empty body).
func (c *Call) Respond(status int, body any) {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			panic(fmt.Sprintf("testutils: marshal response: %v", err))
		}
	}
	c.reply <- reply{resp: &ports.Response{Status: status, Body: data}}
}

// RespondRaw resolves the call with a raw body.
func (c *Call) RespondRaw(status int, body []byte) {
	c.reply <- reply{resp: &ports.Response{Status: status, Body: body}}
}

// Fail resolves the call with a transport error.
func (c *Call) Fail(err error) {
	c.reply <- reply{err: err}
}

// JSON returns the request body encoded as JSON.
func (c *Call) JSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(c.Request.Body)
	require.NoError(t, err)
	return string(data)
}

// Handler answers requests automatically.
type Handler func(req ports.Request) (*ports.Response, error)

// FakeTransport records every request. Unless a Handler is installed, each request blocks
// until the test resolves it, which keeps in-flight states observable.
type FakeTransport struct {
	mu       sync.Mutex
	requests []ports.Request
	handler  Handler
	arrived  chan *Call
}

// NewFakeTransport creates a transport whose calls are resolved by the test.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{arrived: make(chan *Call, 64)}
}

// NewAutoTransport creates a transport that answers with h.
func NewAutoTransport(h Handler) *FakeTransport {
	f := NewFakeTransport()
	f.handler = h
	return f
}

// Do implements ports.Transport.
func (f *FakeTransport) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	h := f.handler
	f.mu.Unlock()

	if h != nil {
		return h(req)
	}

	call := &Call{Request: req, reply: make(chan reply, 1)}
	f.arrived <- call
	select {
	case r := <-call.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Next waits for the next unresolved call.
func (f *FakeTransport) Next(t *testing.T) *Call {
	t.Helper()
	select {
	case call := <-f.arrived:
		return call
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for a request")
		return nil
	}
}

// AssertIdle fails if a request arrives within d.
func (f *FakeTransport) AssertIdle(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case call := <-f.arrived:
		require.FailNow(t, "unexpected request", "%s %s", call.Request.Method, call.Request.Path)
	case <-time.After(d):
	}
}

// Requests returns every request seen so far.
func (f *FakeTransport) Requests() []ports.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.Request, len(f.requests))
	copy(out, f.requests)
	return out
}
