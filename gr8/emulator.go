// Package gr8 ties the session, the debugger and the dashboard together and
// runs the scheduler loop on a terminal.
package gr8

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/valerio/go-gr8/gr8/cpu"
	"github.com/valerio/go-gr8/gr8/debugger"
	"github.com/valerio/go-gr8/gr8/program"
	"github.com/valerio/go-gr8/gr8/render"
	"github.com/valerio/go-gr8/gr8/session"
	"github.com/valerio/go-gr8/gr8/text"
	"github.com/valerio/go-gr8/gr8/timing"
	"github.com/valerio/go-gr8/gr8/vtty"
)

const (
	// redrawInterval is the shortest time between two scheduled redraws.
	redrawInterval = 50 * time.Millisecond

	// idlePoll bounds the input wait when nothing else is scheduled and the
	// terminal is not blocking.
	idlePoll = 20 * time.Millisecond

	banner   = "GR8EMU v1.0"
	stopping = "\x1b[65535;65535H\nStopping...\n"
)

// Terminal is what the emulator needs from the real terminal.
type Terminal interface {
	debugger.Input
	vtty.Screen
	WriteString(s string) (int, error)
	Flush() error
	Blocking() bool
}

// Publisher receives a snapshot after every redraw.
type Publisher interface {
	Publish(snap session.Snapshot)
}

// Config selects what the emulator runs and how it starts.
type Config struct {
	// Program is the image to run; nil runs the built-in hello world.
	Program []byte
	// Frequency is the initial preset index.
	Frequency int
	// RunImmediately starts the CPU without waiting for a resume key.
	RunImmediately bool
	// Monitor is optional.
	Monitor Publisher
}

// Emulator runs one session on a terminal.
type Emulator struct {
	sess    *session.Session
	term    Terminal
	clock   timing.Clock
	dash    *render.Dashboard
	dbg     *debugger.Debugger
	monitor Publisher

	lastRedraw time.Time
	inputEOF   bool
	sleep      func(time.Duration)
}

// New returns an emulator with cfg.Program loaded, ready to Run.
func New(term Terminal, clock timing.Clock, cfg Config) (*Emulator, error) {
	image := cfg.Program
	if image == nil {
		image = program.HelloWorld
	}

	e := &Emulator{
		sess:    session.New(cfg.Frequency, clock.Now()),
		term:    term,
		clock:   clock,
		dash:    render.NewDashboard(term),
		monitor: cfg.Monitor,
		sleep:   time.Sleep,
	}
	if err := e.sess.CPU.Load(image); err != nil {
		return nil, errors.Wrap(err, "loading program")
	}
	e.sess.VTTY = vtty.New(term, e.redraw)
	e.dbg = debugger.New(e.sess, term, e.redraw)

	if cfg.RunImmediately {
		e.sess.Resume()
		e.sess.State = session.Running
	}
	return e, nil
}

// Session returns the emulator's session.
func (e *Emulator) Session() *session.Session {
	return e.sess
}

// Run draws the dashboard and runs the loop until the user interrupts it or
// the input closes while the CPU is not running.
func (e *Emulator) Run() error {
	e.start()
	for {
		err := e.Step()
		switch {
		case err == nil:
			continue
		case errors.Is(err, debugger.ErrInterrupted):
			e.term.WriteString(stopping)
			e.term.Flush()
			slog.Info("Stopped by user", "cycles", e.sess.CPU.Cycles)
			return nil
		case err == io.EOF:
			e.term.Flush()
			slog.Info("Input closed", "cycles", e.sess.CPU.Cycles)
			return nil
		default:
			return err
		}
	}
}

func (e *Emulator) start() {
	e.term.WriteString(strings.Repeat("\n", 6))
	e.redraw()
	e.sess.VTTY.WriteString("\n" + text.BoldInverse + banner + text.Reset + "\n")
	e.term.SetBlocking(!e.sess.Running)
	e.term.Flush()
}

// Step runs one loop iteration: at most one input byte, a tick when one is
// due and a redraw when the dashboard is dirty. It returns io.EOF once the
// input is closed and the CPU is not running.
func (e *Emulator) Step() error {
	s := e.sess

	var b byte
	var ok bool
	if e.inputEOF {
		if !s.Running {
			return io.EOF
		}
		e.sleep(e.waitLimit())
	} else {
		var err error
		b, ok, err = e.term.Next(e.waitLimit())
		if err == io.EOF {
			slog.Debug("input closed")
			e.inputEOF = true
		} else if err != nil {
			return errors.Wrap(err, "reading input")
		}
	}

	if err := e.dbg.HandleKey(b, ok); err != nil {
		return err
	}
	e.tick()
	e.maybeRedraw()
	return nil
}

// waitLimit is how long the next input read may wait: until the next tick
// when running, until the redraw deadline when dirty, without bound when
// the terminal is blocking and nothing is scheduled.
func (e *Emulator) waitLimit() time.Duration {
	s := e.sess
	now := e.clock.Now()

	limit := time.Duration(-1)
	if s.Running {
		limit = s.Throttle.Until(now)
	}
	if s.Dirty {
		d := max(e.lastRedraw.Add(redrawInterval).Sub(now), 0)
		if limit < 0 || d < limit {
			limit = d
		}
	}
	if limit < 0 && !e.term.Blocking() {
		limit = idlePoll
	}
	return limit
}

func (e *Emulator) tick() {
	s := e.sess
	now := e.clock.Now()
	if !s.Running || !s.Throttle.Due(now) {
		return
	}

	cycles := s.Throttle.Preset().Cycles
	status := s.CPU.Tick(cycles, cpu.NormalMode)
	elapsed := s.Throttle.Mark(now)
	s.ActualDesc = timing.Describe(timing.Rate(cycles, elapsed))
	if status == cpu.StatusHalted {
		s.Running = false
		slog.Info("CPU halted", "pc", s.CPU.PC, "cycles", s.CPU.Cycles)
	}
	s.Dirty = true
}

func (e *Emulator) maybeRedraw() {
	if !e.sess.Dirty || e.clock.Now().Sub(e.lastRedraw) < redrawInterval {
		return
	}
	e.redraw()
}

// redraw repaints the dashboard now. It is also the vtty's line break hook
// and the debugger's repaint callback.
func (e *Emulator) redraw() {
	e.dash.Draw(e.sess)
	e.sess.Dirty = false
	e.lastRedraw = e.clock.Now()
	if e.monitor != nil {
		e.monitor.Publish(e.sess.Snapshot())
	}
	e.term.Flush()
}

// RunHeadless runs image without a terminal until the CPU halts or
// maxCycles have run, writing program output to out. It returns the
// session for inspection.
func RunHeadless(image []byte, out io.Writer, maxCycles uint64) (*session.Session, error) {
	if image == nil {
		image = program.HelloWorld
	}
	s := session.New(timing.DefaultPreset, time.Now())
	s.Output = out
	if err := s.CPU.Load(image); err != nil {
		return nil, errors.Wrap(err, "loading program")
	}

	chunk := uint64(s.Throttle.Preset().Cycles)
	for s.CPU.Cycles < maxCycles {
		budget := min(chunk, maxCycles-s.CPU.Cycles)
		if s.CPU.Tick(int(budget), cpu.NormalMode) == cpu.StatusHalted {
			slog.Info("CPU halted", "pc", s.CPU.PC, "cycles", s.CPU.Cycles)
			break
		}
	}
	return s, nil
}
