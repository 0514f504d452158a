// Package config holds the ambient configuration for janus-go servers and
// clients: socket paths, concurrency limits, security caps, and their YAML
// representation.
// file: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
)

var logger = logging.GetLogger("config")

// Settings is the top-level configuration document.
type Settings struct {
	Server   ServerConfig   `yaml:"server"`
	Client   ClientConfig   `yaml:"client"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig configures a janus server process (C8).
type ServerConfig struct {
	SocketPath             string        `yaml:"socket_path"`
	ManifestPath           string        `yaml:"manifest_path"`
	MaxConcurrentHandlers  int           `yaml:"max_concurrent_handlers"`
	MaxMessageSize         int           `yaml:"max_message_size"`
	MaxSlowProcessDuration time.Duration `yaml:"max_slow_process_duration"`
	CleanupSocketOnStart   bool          `yaml:"cleanup_socket_on_start"`
}

// ClientConfig configures a janus client facade (C6/C7).
type ClientConfig struct {
	SocketPath       string        `yaml:"socket_path"`
	DefaultTimeout   time.Duration `yaml:"default_timeout"`
	ReplySocketDir   string        `yaml:"reply_socket_dir"`
	MaxMessageSize   int           `yaml:"max_message_size"`
	MaxPendingReplies int          `yaml:"max_pending_replies"`
}

// SecurityConfig configures the path/resource guards (C9).
type SecurityConfig struct {
	AllowedSocketDirs []string `yaml:"allowed_socket_dirs"`
	MaxArgPayloadSize int      `yaml:"max_arg_payload_size"`
	MaxArgDepth       int      `yaml:"max_arg_depth"`
	MaxPendingPerPeer int      `yaml:"max_pending_per_peer"`
}

// New returns Settings populated with sane defaults.
func New() *Settings {
	logger.Debug("building default janus configuration")
	return &Settings{
		Server: ServerConfig{
			SocketPath:             "/tmp/janus.sock",
			MaxConcurrentHandlers:  64,
			MaxMessageSize:         5 * 1024 * 1024,
			MaxSlowProcessDuration: 10 * time.Second,
			CleanupSocketOnStart:   true,
		},
		Client: ClientConfig{
			DefaultTimeout:    30 * time.Second,
			ReplySocketDir:    "/tmp",
			MaxMessageSize:    5 * 1024 * 1024,
			MaxPendingReplies: 1024,
		},
		Security: SecurityConfig{
			AllowedSocketDirs: []string{"/tmp", "/var/run", "/run"},
			MaxArgPayloadSize: 1024 * 1024,
			MaxArgDepth:       32,
			MaxPendingPerPeer: 1024,
		},
	}
}

// LoadConfig reads and parses a YAML settings document from path, starting
// from New()'s defaults so partial documents are valid.
func LoadConfig(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, janerr.NewManifestError("read config file", err).WithContext("path", path)
	}

	cfg := New()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, janerr.NewManifestError("parse config yaml", err).WithContext("path", path)
	}

	if cfg.Server.SocketPath == "" {
		return nil, janerr.NewManifestError("server.socket_path is required", nil)
	}
	return cfg, nil
}

// ExpandPath expands a leading ~ to the current user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", janerr.NewManifestError("resolve home directory", err).WithContext("input_path", path)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Address renders the server's socket path for display/logging purposes.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("unix://%s", s.SocketPath)
}
