// Package debugger turns input bytes into debugger commands: pausing and
// stepping the CPU, toggling dashboard lines, and typing into the emulated
// keyboard.
package debugger

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/valerio/go-gr8/gr8/addr"
	"github.com/valerio/go-gr8/gr8/cpu"
	"github.com/valerio/go-gr8/gr8/input/action"
	"github.com/valerio/go-gr8/gr8/session"
	"github.com/valerio/go-gr8/gr8/text"
)

// ErrInterrupted is returned by HandleKey when the user asks to quit.
var ErrInterrupted = errors.New("interrupted")

const (
	// StepBudget caps step-over and step-out.
	StepBudget = 8192

	// escapeGrace is how long to wait for the rest of an arrow key sequence
	// after ESC before treating ESC as a key of its own.
	escapeGrace = 10 * time.Millisecond
)

var (
	stepCycleMode = cpu.NormalMode
	stepInMode    = cpu.TickMode{Kind: cpu.StepIn}
	stepOverMode  = cpu.TickMode{Kind: cpu.StepOver, Call: cpu.OpCALL, Return: cpu.OpRET}
	stepOutMode   = cpu.TickMode{Kind: cpu.StepOut, Call: cpu.OpCALL, Return: cpu.OpRET}
)

var arrowKeys = map[byte]byte{
	'A': addr.KeyUp,
	'B': addr.KeyDown,
	'C': addr.KeyRight,
	'D': addr.KeyLeft,
}

// Input is the terminal input as seen by the debugger.
type Input interface {
	Next(limit time.Duration) (byte, bool, error)
	Unread(b byte)
	SetBlocking(blocking bool)
}

// Debugger is the state machine driving a session from key presses.
type Debugger struct {
	sess   *session.Session
	input  Input
	redraw func()
}

// New returns a debugger for sess. redraw must repaint the dashboard
// immediately.
func New(sess *session.Session, input Input, redraw func()) *Debugger {
	return &Debugger{sess: sess, input: input, redraw: redraw}
}

// HandleKey processes one loop iteration's input. ok is false when no byte
// arrived; the current state is still normalized in that case, so a CPU
// that halted while running ends up stopped.
func (d *Debugger) HandleKey(b byte, ok bool) error {
	s := d.sess
	if ok && b == action.KeyInterrupt && s.State != session.KeyboardInject {
		return ErrInterrupted
	}

	switch s.State {
	case session.KeyboardInject:
		d.keyboard(b, ok)
	case session.Running:
		d.running(b, ok)
	case session.Stopped:
		d.stopped(b, ok)
	case session.ShowMenu:
		d.showMenu(b, ok)
	}

	// Frequency keys work in every state; keyboard mode also types them.
	if ok && action.Frequency(b) != action.None {
		s.AdjustFrequency(b)
		slog.Debug("frequency changed", "target", s.TargetDesc)
	}

	d.input.SetBlocking(!s.Running)
	return nil
}

func (d *Debugger) keyboard(b byte, ok bool) {
	if !ok {
		return
	}
	s := d.sess

	switch b {
	case action.KeyEscape:
		if key, isArrow := d.arrow(); isArrow {
			if key != 0 {
				d.push(key)
			}
		} else {
			s.Leave()
			slog.Debug("left keyboard mode", "state", s.State)
		}
	case action.KeyDelete:
		d.push(action.KeyBackspace)
	case 0:
		return
	default:
		d.push(b)
	}
	s.Dirty = true
}

// arrow reads the rest of an arrow key sequence after ESC. It reports
// whether ESC started a CSI sequence, with the translated key or 0 for a
// sequence that is not an arrow key. A byte that does not continue the
// sequence is put back.
func (d *Debugger) arrow() (byte, bool) {
	next, ok, _ := d.input.Next(escapeGrace)
	if !ok {
		return 0, false
	}
	if next != '[' {
		d.input.Unread(next)
		return 0, false
	}
	final, ok, _ := d.input.Next(escapeGrace)
	if !ok {
		return 0, true
	}
	return arrowKeys[final], true
}

func (d *Debugger) push(b byte) {
	if !d.sess.Keyboard.Push(b) {
		slog.Debug("keyboard buffer full, key dropped", "key", action.KeyName(b))
	}
}

func (d *Debugger) running(b byte, ok bool) {
	s := d.sess
	if ok {
		a := action.Run.Lookup(b)
		switch a {
		case action.Pause:
			s.Pause()
		case action.KeyboardEnter:
			s.State = session.KeyboardInject
		case action.Reset:
			d.reset()
		case action.ShowMenu:
			s.State = session.ShowMenu
		}
		d.handled(b, a)
	}

	if !s.Running {
		s.State = session.Stopped
		s.ActualDesc = session.PausedRate
		s.Dirty = true
	}
}

func (d *Debugger) stopped(b byte, ok bool) {
	s := d.sess
	if ok {
		a := action.Stop.Lookup(b)
		switch a {
		case action.Resume:
			s.Resume()
		case action.KeyboardEnter:
			s.State = session.KeyboardInject
		case action.StepCycle:
			d.step(1, stepCycleMode)
		case action.StepIn:
			d.step(1, stepInMode)
		case action.StepOver:
			d.step(StepBudget, stepOverMode)
		case action.StepOut:
			d.step(StepBudget, stepOutMode)
		case action.Reset:
			d.reset()
			if s.VTTY != nil {
				s.VTTY.WriteString("\n" + text.BoldInverse + "RESET" + text.Reset + "\n")
			}
		case action.ShowMenu:
			s.State = session.ShowMenu
		}
		d.handled(b, a)
	}

	if s.Running {
		s.State = session.Running
		s.Dirty = true
	}
}

func (d *Debugger) showMenu(b byte, ok bool) {
	if !ok {
		return
	}
	s := d.sess

	a := action.Show.Lookup(b)
	switch a {
	case action.MenuBack:
		s.Leave()
	case action.ToggleStats:
		s.Show.Stats = !s.Show.Stats
	case action.TogglePC:
		s.Show.PC = !s.Show.PC
	case action.ToggleRegs:
		s.Show.Regs = !s.Show.Regs
	case action.ToggleSRegs:
		s.Show.SRegs = !s.Show.SRegs
	}
	d.handled(b, a)
}

func (d *Debugger) handled(b byte, a action.Action) {
	if a == action.None {
		return
	}
	d.sess.Dirty = true
	slog.Debug("key", "key", action.KeyName(b), "action", a, "state", d.sess.State)
}

func (d *Debugger) step(budget int, mode cpu.TickMode) {
	c := d.sess.CPU
	status := c.Tick(budget, mode)
	if status == cpu.StatusHalted {
		d.sess.Running = false
	}
	slog.Debug("step", "budget", budget, "status", status, "pc", c.PC, "cycles", c.Cycles)
	d.redraw()
}

func (d *Debugger) reset() {
	d.sess.Pause()
	d.sess.CPU.Reset()
	slog.Info("cpu reset")
	d.redraw()
}
