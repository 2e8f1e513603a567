package server

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// NewSharedListener opens a TCP listener with SO_REUSEPORT so every
// worker process in the pool can bind the same address. The kernel then
// spreads incoming connections across the pool.
func NewSharedListener(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	return lc.Listen(context.Background(), "tcp", addr)
}
