package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/outline/internal/config"
	"github.com/aretw0/outline/internal/logging"
	"github.com/aretw0/outline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNewServeHandler_ImportsAndExposesMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.yaml")
	require.NoError(t, os.WriteFile(path, []byte(courseYAML), 0644))

	ctx := context.Background()
	backend, err := OpenBackend(ctx, config.Default().Store)
	require.NoError(t, err)
	defer backend.Close()

	handler, svc, err := NewServeHandler(ctx, ServeOptions{
		Config:     config.Default(),
		ImportPath: path,
		Logger:     logging.NewNop(),
	}, backend)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	status, body := get(t, srv.URL+"/xblock/outline/course-v1")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"welcome"`)

	status, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `outline_authority_changes_total{action="imported"} 1`)

	status, _ = get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)

	stored, err := backend.Store.Get(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "intro", stored.ParentID)
	assert.NotNil(t, svc)
}

func TestNewServeHandler_BadImport(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenBackend(ctx, config.Default().Store)
	require.NoError(t, err)

	_, _, err = NewServeHandler(ctx, ServeOptions{
		Config:     config.Default(),
		ImportPath: filepath.Join(t.TempDir(), "missing.yaml"),
		Logger:     logging.NewNop(),
	}, backend)
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default().Store
		cfg.Driver = config.DriverRedis
		cfg.Redis.Addr = mr.Addr()

		backend, err := OpenBackend(ctx, cfg)
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, backend.Store.Save(ctx, domain.StoredNode{ID: "n", Category: domain.CategoryChapter, Children: []string{}}))
		assert.True(t, mr.Exists("outline:node:n"))

		unlock, err := backend.Locker.Lock(ctx, "course:n", 0)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := config.Default().Store
		cfg.Driver = config.DriverRedis
		cfg.Redis.Addr = "127.0.0.1:1"
		_, err := OpenBackend(ctx, cfg)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenBackend(ctx, config.StoreConfig{Driver: "sqlite"})
		assert.ErrorContains(t, err, "unknown store driver")
	})
}
