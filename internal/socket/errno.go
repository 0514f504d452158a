// file: internal/socket/errno.go
package socket

import "syscall"

func syscallECONNREFUSED() error {
	return syscall.ECONNREFUSED
}
