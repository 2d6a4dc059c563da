package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "outline.yaml", "server:\n  addr: \":9000\"\nstore:\n  driver: redis\n  redis:\n    addr: cache:6379\ncourse:\n  id: course-v1\n  self_paced: true\nlog:\n  level: debug\n"},
		{"json", "outline.json", `{"server":{"addr":":9000"},"store":{"driver":"redis","redis":{"addr":"cache:6379"}},"course":{"id":"course-v1","self_paced":true},"log":{"level":"debug"}}`},
		{"toml", "outline.toml", "[server]\naddr = \":9000\"\n[store]\ndriver = \"redis\"\n[store.redis]\naddr = \"cache:6379\"\n[course]\nid = \"course-v1\"\nself_paced = true\n[log]\nlevel = \"debug\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(write(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, ":9000", cfg.Server.Addr)
			assert.Equal(t, DriverRedis, cfg.Store.Driver)
			assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
			assert.Equal(t, "outline:node:", cfg.Store.Redis.Prefix, "unset fields keep their defaults")
			assert.Equal(t, "course-v1", cfg.Course.ID)
			assert.True(t, cfg.Course.SelfPaced)
			assert.Equal(t, "debug", cfg.Log.Level)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvRedisAddr, "redis:6380")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvSelfPaced, "true")

	cfg, err := Load(write(t, "outline.yaml", "server:\n  addr: \":9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6380", cfg.Store.Redis.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Course.SelfPaced)

	t.Setenv(EnvSelfPaced, "maybe")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(write(t, "outline.yaml", "store:\n  driver: sqlite\n"))
	assert.ErrorContains(t, err, "unknown store driver")

	_, err = Load(write(t, "outline.json", "{not json"))
	assert.Error(t, err)
}
