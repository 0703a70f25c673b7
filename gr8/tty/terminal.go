// Package tty drives the real terminal: input with an optional wait bound,
// cursor movement, and geometry discovered through cursor position reports.
package tty

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/valerio/go-gr8/gr8/timing"
)

const (
	// DefaultWidth and DefaultHeight are used when the size cannot be found.
	DefaultWidth  = 60
	DefaultHeight = 24

	sizeTTL    = time.Second
	cprTimeout = 2 * time.Second

	queryPosition = "\x1b[6n"
	farCorner     = "\x1b[65535;65535H"
)

// Terminal is the emulator's view of the real terminal. Output is buffered
// until Flush. Not safe for concurrent use, except Restore.
type Terminal struct {
	in    Device
	out   *bufio.Writer
	clock timing.Clock

	blocking bool
	pending  []byte

	width, height int
	sizeAt        time.Time
	sizeKnown     bool
	cprFailed     bool
	sizeFallback  func() (int, int, error)

	restore     func() error
	restoreOnce sync.Once
	restoreErr  error
}

// New returns a terminal reading from in and writing to out.
func New(in Device, out io.Writer, clock timing.Clock) *Terminal {
	return &Terminal{
		in:    in,
		out:   bufio.NewWriterSize(out, 16*1024),
		clock: clock,
	}
}

// SetSizeFallback sets the size source used when the terminal does not
// answer position queries.
func (t *Terminal) SetSizeFallback(f func() (int, int, error)) {
	t.sizeFallback = f
}

// SetBlocking selects whether the caller should wait without bound for
// input when it has nothing else to do.
func (t *Terminal) SetBlocking(blocking bool) {
	t.blocking = blocking
}

// Blocking reports the mode chosen with SetBlocking.
func (t *Terminal) Blocking() bool {
	return t.blocking
}

// Next returns the next input byte. It waits at most limit for one to
// arrive; a negative limit waits without bound and zero only takes what is
// already there. ok is false when nothing arrived. The error is io.EOF once
// the input is closed.
func (t *Terminal) Next(limit time.Duration) (b byte, ok bool, err error) {
	if len(t.pending) > 0 {
		b = t.pending[0]
		t.pending = t.pending[1:]
		return b, true, nil
	}

	t.Flush()
	ready, err := t.in.Wait(limit)
	if err != nil || !ready {
		return 0, false, err
	}

	var buf [64]byte
	n, err := t.in.Read(buf[:])
	if n == 0 {
		return 0, false, err
	}
	t.pending = append(t.pending, buf[1:n]...)
	return buf[0], true, nil
}

// Unread puts b back in front of the input.
func (t *Terminal) Unread(b byte) {
	t.pending = append([]byte{b}, t.pending...)
}

// Write buffers p for the terminal.
func (t *Terminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// WriteString buffers s for the terminal.
func (t *Terminal) WriteString(s string) (int, error) {
	return t.out.WriteString(s)
}

// Flush sends buffered output to the terminal.
func (t *Terminal) Flush() error {
	return t.out.Flush()
}

// MoveTo places the cursor at a 1-based column and row.
func (t *Terminal) MoveTo(col, row int) {
	fmt.Fprintf(t.out, "\x1b[%d;%dH", row, col)
}

// Size returns the terminal's width and height. The answer is cached for a
// second since each query moves the cursor.
func (t *Terminal) Size() (width, height int) {
	now := t.clock.Now()
	if t.sizeKnown && now.Sub(t.sizeAt) < sizeTTL {
		return t.width, t.height
	}

	w, h, ok := t.probeSize()
	if !ok && t.sizeFallback != nil {
		var err error
		w, h, err = t.sizeFallback()
		ok = err == nil && w > 0 && h > 0
	}
	if !ok {
		w, h = DefaultWidth, DefaultHeight
	}

	t.width, t.height = w, h
	t.sizeAt, t.sizeKnown = now, true
	return w, h
}

// probeSize moves the cursor to the far corner and asks where it ended up.
func (t *Terminal) probeSize() (int, int, bool) {
	if t.cprFailed {
		return 0, 0, false
	}
	col0, row0, ok := t.CursorPosition()
	if !ok {
		slog.Debug("terminal does not report cursor position")
		t.cprFailed = true
		return 0, 0, false
	}
	t.WriteString(farCorner)
	col, row, ok := t.CursorPosition()
	t.MoveTo(col0, row0)
	return col, row, ok
}

// CursorPosition asks the terminal where the cursor is and waits up to two
// seconds for the answer. Input that arrives in the meantime is kept for
// Next.
func (t *Terminal) CursorPosition() (col, row int, ok bool) {
	t.WriteString(queryPosition)
	t.Flush()

	deadline := t.clock.Now().Add(cprTimeout)
	var got []byte
	var buf [64]byte
	for {
		remaining := deadline.Sub(t.clock.Now())
		if remaining <= 0 {
			break
		}
		ready, err := t.in.Wait(remaining)
		if err != nil || !ready {
			break
		}
		n, err := t.in.Read(buf[:])
		got = append(got, buf[:n]...)
		if start, end, r, c, found := parseCPR(got); found {
			t.pending = append(t.pending, got[:start]...)
			t.pending = append(t.pending, got[end:]...)
			return c, r, true
		}
		if err != nil {
			break
		}
	}
	t.pending = append(t.pending, got...)
	return 0, 0, false
}

// Restore puts the terminal back in the mode it had before Open. Only the
// first call has an effect.
func (t *Terminal) Restore() error {
	t.restoreOnce.Do(func() {
		if t.restore != nil {
			t.restoreErr = t.restore()
		}
	})
	return t.restoreErr
}

// Close flushes pending output and restores the terminal mode.
func (t *Terminal) Close() error {
	t.Flush()
	return t.Restore()
}
