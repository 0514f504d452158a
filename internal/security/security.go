// Package security implements the path and payload guards that sit in front
// of the socket transport and the argument validator: socket path
// canonicalisation, payload size/depth caps, and per-peer resource limits.
// file: internal/security/security.go
package security

import (
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
)

// PathMax mirrors the common Linux PATH_MAX; sockets longer than this are
// rejected outright since the kernel would refuse to bind them anyway.
const PathMax = 4096

// DefaultAllowedDirs is used when a SocketPathGuard is built without an
// explicit allow-list.
var DefaultAllowedDirs = []string{"/tmp", "/var/run", "/run"}

// SocketPathGuard validates that a socket path is safe to bind or connect to.
type SocketPathGuard struct {
	allowedDirs []string
}

// NewSocketPathGuard builds a guard restricted to allowedDirs (absolute
// directory prefixes). An empty slice falls back to DefaultAllowedDirs.
func NewSocketPathGuard(allowedDirs []string) *SocketPathGuard {
	if len(allowedDirs) == 0 {
		allowedDirs = DefaultAllowedDirs
	}
	return &SocketPathGuard{allowedDirs: allowedDirs}
}

// Validate checks path is absolute, within PathMax, and resolves under one
// of the guard's allowed directory prefixes. It does not touch the
// filesystem — socket.Bind rejects a path whose final segment is a symlink.
func (g *SocketPathGuard) Validate(path string) error {
	if path == "" {
		return janerr.NewSecurityError("socket path is empty", nil)
	}
	if len(path) > PathMax {
		return janerr.NewSecurityError("socket path exceeds PATH_MAX", nil).WithContext("length", len(path))
	}
	if !filepath.IsAbs(path) {
		return janerr.NewSecurityError("socket path must be absolute", nil).WithContext("path", path)
	}

	clean := filepath.Clean(path)
	for _, dir := range g.allowedDirs {
		if clean == dir || strings.HasPrefix(clean, strings.TrimSuffix(dir, "/")+"/") {
			return nil
		}
	}
	return janerr.NewSecurityError("socket path is outside the allowed directories", nil).
		WithContext("path", clean).WithContext("allowed_dirs", g.allowedDirs)
}

// PayloadGuard enforces the size/depth/character caps applied to argument
// values during validation (C3's security overlay).
type PayloadGuard struct {
	MaxPayloadSize int
	MaxDepth       int
}

// DefaultPayloadGuard returns the standard caps: 1 MiB per argument, depth 32.
func DefaultPayloadGuard() *PayloadGuard {
	return &PayloadGuard{MaxPayloadSize: 1024 * 1024, MaxDepth: 32}
}

// CheckString rejects NUL bytes and C0 control characters other than
// \t \n \r, per the security overlay.
func (g *PayloadGuard) CheckString(s string) error {
	for _, r := range s {
		if r == 0 {
			return janerr.NewSecurityError("string argument contains a NUL byte", nil)
		}
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return janerr.NewSecurityError("string argument contains a disallowed control character", nil).
				WithContext("codepoint", r)
		}
	}
	if !utf8.ValidString(s) {
		return janerr.NewSecurityError("string argument is not valid UTF-8", nil)
	}
	return nil
}

// CheckSize rejects an encoded argument value whose byte length exceeds the
// configured cap.
func (g *PayloadGuard) CheckSize(encoded []byte) error {
	max := g.MaxPayloadSize
	if max <= 0 {
		max = DefaultPayloadGuard().MaxPayloadSize
	}
	if len(encoded) > max {
		return janerr.NewSecurityError("argument payload exceeds the size cap", nil).
			WithContext("size", len(encoded)).WithContext("max", max)
	}
	return nil
}

// CheckDepth rejects nesting deeper than the configured cap. depth is the
// caller's current recursion depth (0 at the top-level argument value).
func (g *PayloadGuard) CheckDepth(depth int) error {
	max := g.MaxDepth
	if max <= 0 {
		max = DefaultPayloadGuard().MaxDepth
	}
	if depth > max {
		return janerr.NewSecurityError("argument nesting exceeds the depth cap", nil).
			WithContext("depth", depth).WithContext("max", max)
	}
	return nil
}

// PeerLimiter enforces the per-client pending-request cap (default 1024).
// It is a plain counter keyed by peer identity (the reply-to path is used
// as the peer key since the transport carries no stronger identity).
type PeerLimiter struct {
	MaxPending int

	mu     sync.Mutex
	counts map[string]int
}

// NewPeerLimiter builds a limiter with maxPending per peer (<=0 uses 1024).
func NewPeerLimiter(maxPending int) *PeerLimiter {
	if maxPending <= 0 {
		maxPending = 1024
	}
	return &PeerLimiter{MaxPending: maxPending, counts: make(map[string]int)}
}

// Acquire increments peer's pending count, failing if it would exceed the cap.
func (l *PeerLimiter) Acquire(peer string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[peer] >= l.MaxPending {
		return janerr.NewServerError("per-client pending request cap exceeded", nil).
			WithContext("peer", peer).WithContext("max_pending", l.MaxPending)
	}
	l.counts[peer]++
	return nil
}

// Release decrements peer's pending count.
func (l *PeerLimiter) Release(peer string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[peer] > 0 {
		l.counts[peer]--
	}
}
