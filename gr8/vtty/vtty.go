// Package vtty is the emulated program's output terminal. It lives on a
// single line of the real terminal above the dashboard and scrolls the real
// terminal on every line break.
package vtty

import (
	"github.com/valerio/go-gr8/gr8/text"
)

// RowOffset is the distance from the bottom of the terminal to the
// output row.
const RowOffset = 6

// maxEscape bounds the escape accumulator; a longer sequence is flushed
// as is.
const maxEscape = 63

// Screen is the real terminal as seen by the virtual one.
type Screen interface {
	Size() (width, height int)
	MoveTo(col, row int)
	Write(p []byte) (int, error)
}

// VTTY tracks the output cursor and buffers ANSI sequences written by the
// program so they reach the terminal in one piece.
type VTTY struct {
	screen Screen
	redraw func()

	column int
	last   byte
	esc    []byte
}

// New returns a virtual terminal writing to screen. redraw is called after
// every line break, since scrolling moves the dashboard.
func New(screen Screen, redraw func()) *VTTY {
	return &VTTY{
		screen: screen,
		redraw: redraw,
		column: 1,
		esc:    make([]byte, 0, maxEscape),
	}
}

// Column returns the 1-based column of the output cursor.
func (v *VTTY) Column() int {
	return v.column
}

// WriteByte writes one byte of program output. It never fails.
func (v *VTTY) WriteByte(b byte) error {
	width, height := v.screen.Size()
	row := height - RowOffset

	switch {
	case len(v.esc) > 0:
		v.accumulate([]byte{b}, row)
	case b == text.Escape:
		v.esc = append(v.esc, b)
	case b == 0x7F || b == '\b':
		if v.column > 1 {
			v.column--
			v.screen.MoveTo(v.column, row)
			v.screen.Write([]byte{' '})
			v.screen.MoveTo(v.column, row)
		}
	case b == '\r' || b == '\n' && v.last != '\r':
		v.lineBreak(width, height)
	case b == '\n':
		// second half of CRLF
	default:
		v.glyph([]byte{b}, width, height)
	}

	v.last = b
	return nil
}

// WriteString writes s, treating each multi-byte codepoint as a single
// column.
func (v *VTTY) WriteString(s string) (int, error) {
	for i := 0; i < len(s); {
		r, n := text.DecodeRune([]byte(s[i:]))
		if n == 1 {
			v.WriteByte(s[i])
		} else {
			v.WriteRune(r)
		}
		i += n
	}
	return len(s), nil
}

// WriteRune writes a printable codepoint in one column.
func (v *VTTY) WriteRune(r rune) (int, error) {
	if r < 0x80 {
		return 1, v.WriteByte(byte(r))
	}
	p := text.AppendRune(nil, r)
	width, height := v.screen.Size()
	if len(v.esc) > 0 {
		v.accumulate(p, height-RowOffset)
	} else {
		v.glyph(p, width, height)
	}
	v.last = 0
	return len(p), nil
}

// accumulate adds p to a pending escape sequence and sends the sequence
// once p ends it or the buffer is full. A multi-byte glyph ends it whole.
func (v *VTTY) accumulate(p []byte, row int) {
	v.esc = append(v.esc, p...)
	end := len(p) > 1 || p[0] != ';' && !isDigit(p[0])
	if len(v.esc) > 2 && end || len(v.esc) >= maxEscape {
		v.screen.MoveTo(v.column, row)
		v.screen.Write(v.esc)
		v.esc = v.esc[:0]
	}
}

func (v *VTTY) glyph(p []byte, width, height int) {
	if v.column >= width {
		v.lineBreak(width, height)
	}
	v.screen.MoveTo(v.column, height-RowOffset)
	v.screen.Write(p)
	v.column++
}

func (v *VTTY) lineBreak(width, height int) {
	v.screen.MoveTo(width, height)
	v.screen.Write([]byte{'\n'})
	v.column = 1
	v.screen.MoveTo(v.column, height-RowOffset)
	v.screen.Write([]byte(text.ClearLine))
	if v.redraw != nil {
		v.redraw()
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
