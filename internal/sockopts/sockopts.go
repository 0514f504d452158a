// Package sockopts sets low-level socket options on the raw file descriptor
// underlying a Unix datagram connection and classifies the kernel-level
// send failures (EAGAIN/ENOBUFS) the transport needs to map to TransportError.
// file: internal/sockopts/sockopts.go
package sockopts

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
)

// SetSendBuffer sets SO_SNDBUF on conn's underlying file descriptor.
func SetSendBuffer(conn *net.UnixConn, bytes int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return janerr.NewTransportError("obtain raw socket handle", err)
	}

	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, bytes)
	})
	if ctrlErr != nil {
		return janerr.NewTransportError("control send buffer fd", ctrlErr)
	}
	if sockErr != nil {
		return janerr.NewTransportError("set SO_SNDBUF", sockErr)
	}
	return nil
}

// SetNonBlocking puts conn's file descriptor into non-blocking mode. Go's
// runtime already keeps net sockets non-blocking and parks a writer that
// hits EAGAIN until the socket is writable or its deadline passes, so this
// does not make conn's writes return EAGAIN to the caller.
func SetNonBlocking(conn *net.UnixConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return janerr.NewTransportError("obtain raw socket handle", err)
	}

	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		sockErr = unix.SetNonblock(int(fd), true)
	})
	if ctrlErr != nil {
		return janerr.NewTransportError("control non-blocking fd", ctrlErr)
	}
	if sockErr != nil {
		return janerr.NewTransportError("set O_NONBLOCK", sockErr)
	}
	return nil
}

// IsTransientSendError reports whether err is a kernel-level EAGAIN or
// ENOBUFS — conditions the caller should retry with backoff rather than
// surface immediately as a TransportError.
func IsTransientSendError(err error) bool {
	return isErrno(err, unix.EAGAIN) || isErrno(err, unix.ENOBUFS) || isErrno(err, syscall.EWOULDBLOCK)
}

func isErrno(err error, target unix.Errno) bool {
	var errno unix.Errno
	var opErr *net.OpError
	switch {
	case asErrno(err, &errno):
		return errno == target
	case asOpError(err, &opErr):
		return asErrno(opErr.Err, &errno) && errno == target
	default:
		return false
	}
}

func asErrno(err error, target *unix.Errno) bool {
	if e, ok := err.(unix.Errno); ok {
		*target = e
		return true
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return asErrno(u.Unwrap(), target)
	}
	return false
}

func asOpError(err error, target **net.OpError) bool {
	if e, ok := err.(*net.OpError); ok {
		*target = e
		return true
	}
	return false
}
