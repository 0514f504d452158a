// Package socket implements the Unix datagram transport: binding a server
// socket (including stale-socket detection), sending datagrams with bounded
// EAGAIN/ENOBUFS retry, receiving, and generating ephemeral reply-socket
// paths for the client side of the protocol.
// file: internal/socket/socket.go
package socket

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
	"github.com/jowharshamshiri/janus-go/internal/security"
	"github.com/jowharshamshiri/janus-go/internal/sockopts"
)

// A send hitting transient EAGAIN/ENOBUFS is attempted at most 3 times in
// all, pausing 5ms after each failure, before surfacing as TransportError.
const (
	retryAttempts = 3
	retryBackoff  = 5 * time.Millisecond
)

// sendBufferBytes sizes SO_SNDBUF to hold at least one default-maximum
// datagram (5 MiB).
const sendBufferBytes = 5 * 1024 * 1024

// Socket wraps a bound Unix datagram endpoint.
type Socket struct {
	path   string
	conn   *net.UnixConn
	logger logging.Logger
}

// Bind creates a Unix datagram socket at path with mode 0600. If a stale
// socket file already exists (no live listener behind it), it is removed
// and recreated; if cleanupOnStart is true the path is removed
// unconditionally before binding. A path bound by a live process is a fatal
// bind error.
func Bind(path string, cleanupOnStart bool, guard *security.SocketPathGuard, logger logging.Logger) (*Socket, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if guard == nil {
		guard = security.NewSocketPathGuard(nil)
	}
	if err := guard.Validate(path); err != nil {
		return nil, err
	}
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		return nil, janerr.NewSecurityError("socket path is a symbolic link", nil).WithContext("path", path)
	}

	if cleanupOnStart {
		_ = os.Remove(path)
	} else if _, err := os.Stat(path); err == nil {
		if isLive(path) {
			return nil, janerr.NewTransportError("socket path is already bound by a live process", nil).
				WithContext("path", path)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, janerr.NewTransportError("remove stale socket file", err).WithContext("path", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, janerr.NewTransportError("create socket directory", err)
	}

	addr := &net.UnixAddr{Name: path, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, janerr.NewTransportError("bind unix datagram socket", err).WithContext("path", path)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = conn.Close()
		return nil, janerr.NewTransportError("chmod socket file", err)
	}

	if err := sockopts.SetNonBlocking(conn); err != nil {
		_ = conn.Close()
		_ = os.Remove(path)
		return nil, err
	}
	// SO_SNDBUF is clamped by the kernel (net.core.wmem_max), so an
	// undersized buffer is a warning rather than a bind failure.
	if err := sockopts.SetSendBuffer(conn, sendBufferBytes); err != nil {
		logger.Warn("could not size socket send buffer", "path", path, "error", err)
	}

	return &Socket{path: path, conn: conn, logger: logger.WithField("component", "socket")}, nil
}

// isLive probes path by connecting to it and writing a zero-length datagram.
// A failed connect (ECONNREFUSED for a stale socket with no listener, or any
// other dial error) or an ECONNREFUSED write means not live; a successful
// write, or a write failing with a different error, is treated as live.
func isLive(path string) bool {
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return false
	}
	defer conn.Close()
	_, err = conn.Write(nil)
	if err == nil {
		return true
	}
	return !errors.Is(err, syscallECONNREFUSED())
}

// Path returns the filesystem path this socket is bound to.
func (s *Socket) Path() string { return s.path }

// Send writes data to the datagram socket at destPath. Sends larger than
// maxSize are rejected before the syscall; transient EAGAIN/ENOBUFS are
// retried with backoff before surfacing as TransportError.
func (s *Socket) Send(destPath string, data []byte, maxSize int) error {
	if maxSize > 0 && len(data) > maxSize {
		return janerr.NewMessageTooLarge("datagram exceeds max_message_size", nil).
			WithContext("size", len(data)).WithContext("max", maxSize)
	}

	addr := &net.UnixAddr{Name: destPath, Net: "unixgram"}
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		_, err := s.conn.WriteToUnix(data, addr)
		if err == nil {
			return nil
		}
		lastErr = err
		if !sockopts.IsTransientSendError(err) {
			break
		}
		time.Sleep(retryBackoff)
	}
	return janerr.NewTransportError("send datagram", lastErr).WithContext("dest", destPath)
}

// Recv reads the next datagram into buf, returning the byte count and the
// sender's address path when the kernel supplies one.
func (s *Socket) Recv(buf []byte) (int, string, error) {
	n, addr, err := s.conn.ReadFromUnix(buf)
	if err != nil {
		return 0, "", janerr.NewTransportError("receive datagram", err)
	}
	peer := ""
	if addr != nil {
		peer = addr.Name
	}
	return n, peer, nil
}

// SetDeadline arms a read/write deadline on the underlying connection.
func (s *Socket) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}

// Close removes the socket file and releases the connection.
func (s *Socket) Close() error {
	err := s.conn.Close()
	_ = os.Remove(s.path)
	return err
}

// GenerateReplySocketPath builds a collision-safe ephemeral reply-socket
// path of the form "<dir>/.reply-<uuid>.sock".
func GenerateReplySocketPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf(".reply-%s.sock", uuid.NewString()))
}
