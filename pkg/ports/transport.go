package ports

import (
	"context"
	"net/url"
)

// Request is a single call to the remote authority.
// Body is JSON-encoded by the transport when non-nil.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Response carries the raw status and body of a completed call.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Transport issues requests to the remote authority.
// A returned error means no response was received (network failure, timeout, cancellation);
// non-2xx statuses are returned as a Response with a nil error.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (*Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Paths builds request paths for the remote authority.
type Paths struct {
	// Collection is the path used to create or duplicate nodes.
	Collection string
	// Node returns the path of a single node.
	Node func(id string) string
	// Outline returns the path of a node's outline (node plus its subtree).
	Outline func(id string) string
}

// PrefixPaths returns Paths rooted at prefix, e.g. "/xblock".
func PrefixPaths(prefix string) Paths {
	return Paths{
		Collection: prefix + "/",
		Node: func(id string) string {
			return prefix + "/" + url.PathEscape(id)
		},
		Outline: func(id string) string {
			return prefix + "/outline/" + url.PathEscape(id)
		},
	}
}
