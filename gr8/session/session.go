// Package session holds the state shared by the debugger, the scheduler and
// the dashboard for one emulator run.
package session

import (
	"io"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/valerio/go-gr8/gr8/addr"
	"github.com/valerio/go-gr8/gr8/cpu"
	"github.com/valerio/go-gr8/gr8/keyboard"
	"github.com/valerio/go-gr8/gr8/timing"
	"github.com/valerio/go-gr8/gr8/vtty"
)

// State is the debugger state, which also selects the legend shown under
// the dashboard.
type State int

const (
	KeyboardInject State = iota
	Running
	Stopped
	ShowMenu
)

func (s State) String() string {
	switch s {
	case KeyboardInject:
		return "keyboard"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case ShowMenu:
		return "show"
	default:
		return "unknown"
	}
}

// Show selects the optional dashboard lines.
type Show struct {
	Stats bool
	PC    bool
	Regs  bool
	SRegs bool
}

// PausedRate is the achieved rate shown while the CPU is not running.
const PausedRate = "0.0 Hz"

// Session is the emulator state for one run. There is exactly one per
// Emulator; nothing in it is global.
type Session struct {
	State   State
	Running bool
	Dirty   bool
	Show    Show

	Throttle   *timing.Throttle
	TargetDesc string
	ActualDesc string

	Keyboard *keyboard.Ring
	CPU      *cpu.CPU
	// VTTY receives program output. Without it output goes to Output, and
	// is dropped when both are nil.
	VTTY   *vtty.VTTY
	Output io.Writer

	MMIORead  uint64
	MMIOWrite uint64
}

// New returns a stopped session at preset freq with the default display
// toggles and a reset CPU connected to the session's I/O ports.
func New(freq int, now time.Time) *Session {
	s := &Session{
		State:      Stopped,
		Show:       Show{PC: true, Regs: true},
		Throttle:   timing.NewThrottle(freq, now),
		ActualDesc: PausedRate,
		Keyboard:   keyboard.New(),
	}
	s.updateTarget()
	s.CPU = cpu.New(s)
	return s
}

// Resume sets the CPU running.
func (s *Session) Resume() {
	s.Running = true
}

// Pause stops the CPU and resets the achieved rate.
func (s *Session) Pause() {
	s.Running = false
	s.ActualDesc = PausedRate
}

// Leave returns from the keyboard or show state to the state matching the
// CPU's run flag.
func (s *Session) Leave() {
	if s.Running {
		s.State = Running
	} else {
		s.State = Stopped
	}
}

// AdjustFrequency handles the frequency keys: '-' and '_' select the next
// slower preset, '=' and '+' the next faster one. It reports whether b was
// a frequency key.
func (s *Session) AdjustFrequency(b byte) bool {
	var changed bool
	switch b {
	case '-', '_':
		changed = s.Throttle.Slower()
	case '=', '+':
		changed = s.Throttle.Faster()
	default:
		return false
	}
	if changed {
		s.updateTarget()
		s.Dirty = true
	}
	return true
}

func (s *Session) updateTarget() {
	s.TargetDesc = timing.Describe(s.Throttle.Preset().Hertz())
}

// ReadIO implements cpu.Bus. Reading the keyboard port pops the oldest
// pending key, or 0 when none is pending.
func (s *Session) ReadIO(address uint16) byte {
	s.MMIORead++
	if address != addr.Keyboard {
		return 0
	}
	b, _ := s.Keyboard.Pop()
	return b
}

// PeekIO reads a port without side effects.
func (s *Session) PeekIO(address uint16) byte {
	if address != addr.Keyboard {
		return 0
	}
	b, _ := s.Keyboard.Peek()
	return b
}

// WriteIO implements cpu.Bus. Writing the output port prints to the virtual
// terminal; bytes with the high bit set print their IBM437 glyph.
func (s *Session) WriteIO(address uint16, value byte) {
	s.MMIOWrite++
	if address != addr.Output {
		return
	}
	if s.VTTY == nil {
		if s.Output != nil {
			s.Output.Write([]byte{value})
		}
		return
	}
	if value&0x80 != 0 {
		s.VTTY.WriteRune(charmap.CodePage437.DecodeByte(value))
		return
	}
	s.VTTY.WriteByte(value)
}
