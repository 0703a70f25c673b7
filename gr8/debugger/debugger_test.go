package debugger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-gr8/gr8/addr"
	"github.com/valerio/go-gr8/gr8/cpu"
	"github.com/valerio/go-gr8/gr8/input/action"
	"github.com/valerio/go-gr8/gr8/program"
	"github.com/valerio/go-gr8/gr8/session"
	"github.com/valerio/go-gr8/gr8/vtty"
)

type fakeInput struct {
	pending  []byte
	blocking bool
}

func (f *fakeInput) Next(time.Duration) (byte, bool, error) {
	if len(f.pending) == 0 {
		return 0, false, nil
	}
	b := f.pending[0]
	f.pending = f.pending[1:]
	return b, true, nil
}

func (f *fakeInput) Unread(b byte) {
	f.pending = append([]byte{b}, f.pending...)
}

func (f *fakeInput) SetBlocking(blocking bool) {
	f.blocking = blocking
}

type fixture struct {
	sess    *session.Session
	input   *fakeInput
	dbg     *Debugger
	redraws int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sess:  session.New(2, time.Unix(0, 0)),
		input: &fakeInput{},
	}
	require.NoError(t, f.sess.CPU.Load(program.HelloWorld))
	f.dbg = New(f.sess, f.input, func() { f.redraws++ })
	return f
}

func (f *fixture) key(t *testing.T, b byte) {
	t.Helper()
	require.NoError(t, f.dbg.HandleKey(b, true))
}

func (f *fixture) idle(t *testing.T) {
	t.Helper()
	require.NoError(t, f.dbg.HandleKey(0, false))
}

func TestInterrupt(t *testing.T) {
	for _, state := range []session.State{session.Running, session.Stopped, session.ShowMenu} {
		t.Run(state.String(), func(t *testing.T) {
			f := newFixture(t)
			f.sess.State = state

			assert.ErrorIs(t, f.dbg.HandleKey(action.KeyInterrupt, true), ErrInterrupted)
		})
	}

	t.Run("forwarded in keyboard mode", func(t *testing.T) {
		f := newFixture(t)
		f.sess.State = session.KeyboardInject

		f.key(t, action.KeyInterrupt)

		assert.Equal(t, []byte{0x03}, f.sess.Keyboard.Snapshot(32))
	})
}

func TestStopped_Steps(t *testing.T) {
	tests := []struct {
		name   string
		key    byte
		cycles uint64
		insns  uint64
		pc     uint16
	}{
		{"single cycle", '1', 1, 0, 0x0000},
		{"step in", '2', 2, 1, 0x0002},
		{"step over plain instruction", '3', 2, 1, 0x0002},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.key(t, tt.key)

			assert.Equal(t, tt.cycles, f.sess.CPU.Cycles)
			assert.Equal(t, tt.insns, f.sess.CPU.Insns)
			assert.Equal(t, tt.pc, f.sess.CPU.PC)
			assert.Equal(t, 1, f.redraws)
			assert.Equal(t, session.Stopped, f.sess.State)
			assert.True(t, f.input.blocking)
		})
	}
}

func TestStopped_StepOverAndOutOfCall(t *testing.T) {
	f := newFixture(t)
	scr := &screen{}
	f.sess.VTTY = vtty.New(scr, nil)
	for i := 0; i < 4; i++ {
		f.key(t, '2')
	}
	require.Equal(t, uint16(0x000B), f.sess.CPU.PC)

	f.key(t, '3')
	assert.Equal(t, uint16(0x000E), f.sess.CPU.PC)
	assert.Contains(t, scr.out.String(), "!")

	f.sess.CPU.Reset()
	for i := 0; i < 5; i++ {
		f.key(t, '2')
	}
	require.Equal(t, uint16(0x000F), f.sess.CPU.PC)
	f.key(t, '4')
	assert.Equal(t, uint16(0x000E), f.sess.CPU.PC)
}

func TestStopped_StepIntoHaltKeepsStopped(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.CPU.Load([]byte{cpu.OpHLT}))

	f.key(t, '2')

	assert.True(t, f.sess.CPU.Halted)
	assert.False(t, f.sess.Running)
	assert.Equal(t, session.Stopped, f.sess.State)
}

func TestResumeThenPause(t *testing.T) {
	f := newFixture(t)

	f.key(t, action.KeyPause)
	assert.True(t, f.sess.Running)
	assert.Equal(t, session.Running, f.sess.State)
	assert.False(t, f.input.blocking)

	f.sess.ActualDesc = "1.0 MHz"
	f.key(t, action.KeyPause)
	assert.False(t, f.sess.Running)
	assert.Equal(t, session.Stopped, f.sess.State)
	assert.Equal(t, session.PausedRate, f.sess.ActualDesc)
	assert.True(t, f.input.blocking)
}

func TestRunning_HaltNormalizesToStopped(t *testing.T) {
	f := newFixture(t)
	f.key(t, action.KeyPause)
	require.Equal(t, session.Running, f.sess.State)

	// the scheduler clears Running when a tick reports a halt
	f.sess.Running = false
	f.sess.Dirty = false
	f.idle(t)

	assert.Equal(t, session.Stopped, f.sess.State)
	assert.Equal(t, session.PausedRate, f.sess.ActualDesc)
	assert.True(t, f.sess.Dirty)
	assert.True(t, f.input.blocking)
}

func TestReset(t *testing.T) {
	t.Run("while stopped", func(t *testing.T) {
		f := newFixture(t)
		scr := &screen{}
		f.sess.VTTY = vtty.New(scr, nil)
		f.key(t, '2')

		f.key(t, action.KeyReset)

		assert.Zero(t, f.sess.CPU.Cycles)
		assert.Equal(t, 2, f.redraws)
		assert.Contains(t, scr.out.String(), "RESET")
		assert.Equal(t, 1, f.sess.VTTY.Column())
	})

	t.Run("while running", func(t *testing.T) {
		f := newFixture(t)
		f.key(t, action.KeyPause)
		f.sess.CPU.Tick(10, cpu.NormalMode)

		f.key(t, action.KeyReset)

		assert.Zero(t, f.sess.CPU.Cycles)
		assert.False(t, f.sess.Running)
		assert.Equal(t, session.Stopped, f.sess.State)
		assert.Equal(t, 1, f.redraws)
	})
}

func TestKeyboardMode(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		running bool
		want    []byte
		state   session.State
		rest    []byte
	}{
		{"plain", []byte("hi"), false, []byte("hi"), session.KeyboardInject, nil},
		{"arrow up", []byte("\x1b[A"), false, []byte{addr.KeyUp}, session.KeyboardInject, nil},
		{"arrows", []byte("\x1b[B\x1b[C\x1b[D"), false, []byte{addr.KeyDown, addr.KeyRight, addr.KeyLeft}, session.KeyboardInject, nil},
		{"unknown csi dropped", []byte("\x1b[Z"), false, nil, session.KeyboardInject, nil},
		{"delete is backspace", []byte{0x7F}, false, []byte{0x08}, session.KeyboardInject, nil},
		{"high byte", []byte{0xE9}, false, []byte{0xE9}, session.KeyboardInject, nil},
		{"frequency keys are typed too", []byte("a-+b"), false, []byte("a-+b"), session.KeyboardInject, nil},
		{"lone escape stops", []byte{0x1B}, false, nil, session.Stopped, nil},
		{"lone escape runs", []byte{0x1B}, true, nil, session.Running, nil},
		{"escape keeps next byte", []byte("\x1bx"), false, nil, session.Stopped, []byte("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.sess.State = session.KeyboardInject
			f.sess.Running = tt.running
			f.input.pending = append(f.input.pending, tt.input[1:]...)

			f.key(t, tt.input[0])
			for f.sess.State == session.KeyboardInject {
				b, ok, _ := f.input.Next(0)
				if !ok {
					break
				}
				f.key(t, b)
			}

			assert.Equal(t, tt.want, f.sess.Keyboard.Snapshot(32))
			assert.Equal(t, tt.state, f.sess.State)
			assert.Equal(t, string(tt.rest), string(f.input.pending))
			assert.Equal(t, !tt.running, f.input.blocking)
		})
	}
}

func TestKeyboardMode_FrequencyKeysTypedAndApplied(t *testing.T) {
	f := newFixture(t)
	f.sess.State = session.KeyboardInject

	f.key(t, '-')
	assert.Equal(t, 3, f.sess.Throttle.Index())
	assert.Equal(t, []byte("-"), f.sess.Keyboard.Snapshot(32))

	f.key(t, '+')
	assert.Equal(t, 2, f.sess.Throttle.Index())
	assert.Equal(t, []byte("-+"), f.sess.Keyboard.Snapshot(32))

	f.key(t, '_')
	f.key(t, '=')
	assert.Equal(t, 2, f.sess.Throttle.Index())
	assert.Equal(t, []byte("-+_="), f.sess.Keyboard.Snapshot(32))
	assert.Equal(t, session.KeyboardInject, f.sess.State)
	assert.True(t, f.sess.Dirty)
}

func TestKeyboardMode_FullRingDrops(t *testing.T) {
	f := newFixture(t)
	f.sess.State = session.KeyboardInject

	for i := 0; i < 40; i++ {
		f.key(t, 'k')
	}

	assert.Equal(t, 31, f.sess.Keyboard.Len())
}

func TestShowMenu(t *testing.T) {
	f := newFixture(t)

	f.key(t, action.KeyShow)
	require.Equal(t, session.ShowMenu, f.sess.State)

	f.key(t, '1')
	f.key(t, '2')
	f.key(t, '3')
	f.key(t, '4')
	assert.Equal(t, session.Show{Stats: true, PC: false, Regs: false, SRegs: true}, f.sess.Show)

	f.key(t, '4')
	assert.False(t, f.sess.Show.SRegs)

	f.key(t, action.KeyEscape)
	assert.Equal(t, session.Stopped, f.sess.State)
	assert.Zero(t, f.sess.CPU.Cycles, "menu digits never step the CPU")
}

func TestShowMenu_WhileRunning(t *testing.T) {
	f := newFixture(t)
	f.key(t, action.KeyPause)
	f.key(t, action.KeyShow)
	require.Equal(t, session.ShowMenu, f.sess.State)

	f.sess.Running = false
	f.idle(t)
	assert.Equal(t, session.ShowMenu, f.sess.State, "the menu does not normalize")

	f.key(t, action.KeyEscape)
	assert.Equal(t, session.Stopped, f.sess.State)
}

func TestUnboundKeyIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.key(t, 'z')

	assert.False(t, f.sess.Dirty)
	assert.Zero(t, f.redraws)
	assert.Equal(t, session.Stopped, f.sess.State)
}

func TestFrequencyKeys(t *testing.T) {
	f := newFixture(t)

	f.key(t, '+')
	assert.Equal(t, 1, f.sess.Throttle.Index())
	assert.Equal(t, "10.0 MHz", f.sess.TargetDesc)
	assert.True(t, f.sess.Dirty)

	f.key(t, '_')
	f.key(t, '_')
	assert.Equal(t, 3, f.sess.Throttle.Index())
	assert.Equal(t, session.Stopped, f.sess.State)
}

type screen struct {
	out strings.Builder
}

func (s *screen) Size() (int, int)            { return 80, 24 }
func (s *screen) MoveTo(int, int)             {}
func (s *screen) Write(p []byte) (int, error) { return s.out.Write(p) }
