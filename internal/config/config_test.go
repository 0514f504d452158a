// file: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, "/tmp/janus.sock", cfg.Server.SocketPath)
	assert.Equal(t, 64, cfg.Server.MaxConcurrentHandlers)
	assert.True(t, cfg.Server.CleanupSocketOnStart)
	assert.NotEmpty(t, cfg.Security.AllowedSocketDirs)
}

func TestLoadConfigValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
server:
  socket_path: /tmp/custom.sock
  max_concurrent_handlers: 8
client:
  default_timeout: 5s
security:
  max_arg_payload_size: 2048
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.sock", cfg.Server.SocketPath)
	assert.Equal(t, 8, cfg.Server.MaxConcurrentHandlers)
	assert.Equal(t, 2048, cfg.Security.MaxArgPayloadSize)
}

func TestLoadConfigMissingSocketPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  socket_path: \"\"\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigNonexistentFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/foo/bar")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "foo/bar"), expanded)

	plain, err := ExpandPath("/tmp/foo")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/foo", plain)
}
