//go:build unix

package tty

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/valerio/go-gr8/gr8/timing"
)

// Open returns a terminal on stdin and stdout with stdin in cbreak mode:
// no echo, no line buffering and no signal keys, with output processing
// left alone. If stdin is not a terminal its mode is not touched.
func Open() (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	t := New(fdDevice{fd: fd}, os.Stdout, timing.SystemClock{})
	t.SetSizeFallback(func() (int, int, error) {
		return term.GetSize(int(os.Stdout.Fd()))
	})

	if !term.IsTerminal(fd) {
		slog.Warn("stdin is not a terminal, input mode unchanged")
		return t, nil
	}

	saved, err := enterCbreak(fd)
	if err != nil {
		return nil, err
	}
	t.restore = func() error {
		return errors.Wrap(unix.IoctlSetTermios(fd, ioctlSetTermios, saved), "restoring terminal mode")
	}
	return t, nil
}

func enterCbreak(fd int) (*unix.Termios, error) {
	saved, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, errors.Wrap(err, "reading terminal mode")
	}

	mode := *saved
	mode.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG
	mode.Cc[unix.VMIN] = 1
	mode.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &mode); err != nil {
		return nil, errors.Wrap(err, "setting cbreak mode")
	}
	return saved, nil
}

// RestoreOnSignal restores the terminal and exits when the process is
// terminated or its terminal hangs up. The returned function stops watching.
func (t *Terminal) RestoreOnSignal() (stop func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		select {
		case sig := <-sigs:
			if err := t.Restore(); err != nil {
				slog.Error("failed to restore terminal", "error", err)
			}
			slog.Info("terminated", "signal", sig.String())
			os.Exit(1)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
