package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixPaths(t *testing.T) {
	p := PrefixPaths("/xblock")
	assert.Equal(t, "/xblock/", p.Collection)
	assert.Equal(t, "/xblock/block-v1:edX+DemoX+Demo_Course+type@chapter+block@abc", p.Node("block-v1:edX+DemoX+Demo_Course+type@chapter+block@abc"))
	assert.Equal(t, "/xblock/outline/a%2Fb", p.Outline("a/b"))
}

func TestTransportFunc(t *testing.T) {
	var got Request
	tr := TransportFunc(func(ctx context.Context, req Request) (*Response, error) {
		got = req
		return &Response{Status: 204}, nil
	})
	resp, err := tr.Do(context.Background(), Request{Method: "DELETE", Path: "/xblock/x"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "DELETE", got.Method)

	assert.False(t, (&Response{Status: 500}).OK())
	assert.False(t, (*Response)(nil).OK())
}
