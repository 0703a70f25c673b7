//go:build unix

package tty

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Device is the input side of a terminal.
type Device interface {
	// Wait blocks until input is readable or timeout passes. A negative
	// timeout waits without bound.
	Wait(timeout time.Duration) (bool, error)
	// Read returns io.EOF once the input is closed.
	Read(p []byte) (int, error)
}

// fdDevice reads a file descriptor with poll(2) and read(2), so waiting
// never needs a goroutine.
type fdDevice struct {
	fd int
}

func (d fdDevice) Wait(timeout time.Duration) (bool, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, errors.Wrap(err, "poll input")
		}
		return n > 0, nil
	}
}

func (d fdDevice) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(d.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, nil
		}
		if err != nil {
			return 0, errors.Wrap(err, "read input")
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}
