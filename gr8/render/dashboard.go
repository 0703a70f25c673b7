// Package render draws the dashboard below the program output: frequency
// header, keyboard buffer, registers, statistics and the key legend.
package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/valerio/go-gr8/gr8/addr"
	"github.com/valerio/go-gr8/gr8/input/action"
	"github.com/valerio/go-gr8/gr8/keyboard"
	"github.com/valerio/go-gr8/gr8/session"
	"github.com/valerio/go-gr8/gr8/text"
	"github.com/valerio/go-gr8/gr8/vtty"
)

const (
	cornerTopLeft     = "╔"
	cornerTopRight    = "╗"
	cornerBottomLeft  = "╚"
	cornerBottomRight = "╝"
	pipeH             = "═"
	pipeV             = "║"

	// keyboardRowOffset is the distance from the bottom of the terminal to
	// the keyboard line; the dashboard starts one row above it.
	keyboardRowOffset = 4

	// statsMinWidth is the narrowest terminal that shows the stats line.
	statsMinWidth = 80
)

// Screen is the terminal the dashboard draws on.
type Screen interface {
	Size() (width, height int)
	MoveTo(col, row int)
	WriteString(s string) (int, error)
}

// Dashboard renders a session. It remembers where the keyboard line ends
// so the cursor can be parked there in keyboard mode.
type Dashboard struct {
	screen         Screen
	keyboardColumn int
}

// NewDashboard returns a dashboard drawing on screen.
func NewDashboard(screen Screen) *Dashboard {
	return &Dashboard{screen: screen, keyboardColumn: 1}
}

// KeyboardColumn returns the cursor column of the keyboard line as of the
// last Draw.
func (d *Dashboard) KeyboardColumn() int {
	return d.keyboardColumn
}

// Draw redraws the whole dashboard and leaves the cursor at the live
// input point.
func (d *Dashboard) Draw(s *session.Session) {
	width, height := d.screen.Size()

	var b strings.Builder
	d.header(&b, s, width)
	d.keyboard(&b, s.Keyboard, width)
	b.WriteString(pipeV + "\n" + cornerBottomLeft)
	registers(&b, s, width)
	if s.Show.Stats && width >= statsMinWidth {
		stats(&b, s)
	}
	b.WriteString("\n")
	legend(&b, action.For(s.State), width)

	d.screen.MoveTo(1, height-keyboardRowOffset-1)
	d.screen.WriteString(b.String())

	if s.State == session.KeyboardInject {
		d.screen.MoveTo(d.keyboardColumn, height-keyboardRowOffset)
		return
	}
	col := 1
	if s.VTTY != nil {
		col = s.VTTY.Column()
	}
	d.screen.MoveTo(col, height-vtty.RowOffset)
}

func (d *Dashboard) header(b *strings.Builder, s *session.Session, width int) {
	rates := fmt.Sprintf("[%s / %s]", s.ActualDesc, s.TargetDesc)
	b.WriteString(cornerTopLeft + pipeH + "Keyboard")
	for i := 10; i < width-text.Len(rates)-1; i++ {
		b.WriteString(pipeH)
	}
	b.WriteString(rates)
	b.WriteString(cornerTopRight + "\n" + text.ClearLine + pipeV)
}

// keyboard writes the pending keys between the box borders, keeping the
// newest ones when they do not fit.
func (d *Dashboard) keyboard(b *strings.Builder, ring *keyboard.Ring, width int) {
	keys, keysWidth := FormatKeys(ring.Snapshot(keyboard.Capacity))

	if keysWidth > width-3 {
		start, length := text.VisibleSubstring(keys, keysWidth-width+5, len(keys))
		b.WriteString(text.Dim + "..." + text.Reset)
		b.WriteString(keys[start : start+length])
		d.keyboardColumn = width
		return
	}

	b.WriteString(keys)
	if pad := width - 2 - keysWidth; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	d.keyboardColumn = keysWidth + 2
}

// FormatKeys renders keyboard bytes with symbols for the keys that have no
// printable form. It returns the text and its visible width.
func FormatKeys(keys []byte) (string, int) {
	var b strings.Builder
	width := 0
	for _, k := range keys {
		sym := keySymbol(k)
		switch {
		case sym != "":
			b.WriteString(text.Dim + sym + text.Reset)
			width++
		case k < 0x20:
			b.WriteString(text.Dim + "^" + string(rune(k|0x40)) + text.Reset)
			width += 2
		case k >= 0x80:
			b.WriteRune(charmap.CodePage437.DecodeByte(k))
			width++
		default:
			b.WriteByte(k)
			width++
		}
	}
	return b.String(), width
}

func keySymbol(k byte) string {
	switch k {
	case '\r', '\n':
		return "↩"
	case '\t':
		return "⇥"
	case action.KeyDelete, action.KeyBackspace:
		return "⇤"
	case addr.KeyUp:
		return "↑"
	case addr.KeyDown:
		return "↓"
	case addr.KeyLeft:
		return "←"
	case addr.KeyRight:
		return "→"
	case ' ':
		return "·"
	}
	return ""
}

// registers writes the toggled register groups and closes the box.
func registers(b *strings.Builder, s *session.Session, width int) {
	c := s.CPU
	var parts []string
	if s.Show.PC {
		parts = append(parts, fmt.Sprintf("PC:"+bold("%04x"), c.PC))
	}
	if s.Show.Regs {
		parts = append(parts, fmt.Sprintf(
			"A:"+bold("%02x")+" B:"+bold("%02x")+" X:"+bold("%02x")+" Y:"+bold("%02x")+" ST:"+bold("%04x"),
			c.A, c.B, c.X, c.Y, c.ST))
	}
	if s.Show.SRegs {
		parts = append(parts, fmt.Sprintf(
			"IR:"+bold("%02x")+" AR:"+bold("%04x")+" NMI:"+bold("%04x")+" IRQ:"+bold("%04x")+
				" F:%02x"+text.Reset+" CU:"+bold("%1x/%1x"),
			c.IR, c.AR, c.NMI, c.IRQ, c.Flags(), c.Mode, c.Stage))
	}

	line := ""
	if len(parts) > 0 {
		line = "[" + strings.Join(parts, " ") + "]"
	}
	b.WriteString(line)
	for i := text.VisibleLen(line) + 1; i < width-1; i++ {
		b.WriteString(pipeH)
	}
	b.WriteString(cornerBottomRight + "\n")
}

func stats(b *strings.Builder, s *session.Session) {
	fmt.Fprintf(b, " [MMIO R:"+bold("%9d")+"   MMIO W:"+bold("%9d")+
		"   CYC:"+bold("%9d")+"   INS:"+bold("%9d")+"   JSR:"+bold("%9d")+"]",
		s.MMIORead, s.MMIOWrite, s.CPU.Cycles, s.CPU.Insns, s.CPU.Subs)
}

// legend writes the bindings of group on two rows: even entries on the
// first, odd entries on the second.
func legend(b *strings.Builder, group action.Group, width int) {
	spacing := (width-1)/((len(group)+1)/2) - 1
	for row := 0; row < 2; row++ {
		if row > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text.ClearLine + " ")
		for i := row; i < len(group); i += 2 {
			binding := group[i]
			key := keyLabel(binding.Key)
			b.WriteString(text.BoldInverse + key + text.Reset + " " + binding.Label)
			if pad := spacing - len(binding.Label) - len(key); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
	}
}

// keyLabel shows a trigger byte, control bytes in caret notation.
func keyLabel(k byte) string {
	if k < 0x20 {
		return "^" + string(rune(k|0x40))
	}
	return string(rune(k))
}

func bold(verb string) string {
	return text.Bold + verb + text.Reset
}
