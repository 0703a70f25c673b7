// Package action binds control keys to debugger actions. Each debugger
// state has its own group of bindings, which is also the legend shown under
// the dashboard.
package action

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-gr8/gr8/session"
)

// Action represents a debugger command.
type Action int

const (
	None Action = iota

	KeyboardEnter
	KeyboardExit
	Pause
	Resume
	Reset
	ShowMenu
	MenuBack

	StepCycle
	StepIn
	StepOver
	StepOut

	ToggleStats
	TogglePC
	ToggleRegs
	ToggleSRegs

	FrequencyDown
	FrequencyUp
)

// Control keys. They are the raw bytes a terminal in cbreak mode delivers.
const (
	KeyInterrupt = byte(tcell.KeyCtrlC)
	KeyEscape    = byte(tcell.KeyESC)
	KeyKeyboard  = byte(tcell.KeyCtrlK)
	KeyPause     = byte(tcell.KeyCtrlP)
	KeyReset     = byte(tcell.KeyCtrlR)
	KeyShow      = byte(tcell.KeyCtrlV)
	KeyDelete    = byte(tcell.KeyDEL)
	KeyBackspace = byte(tcell.KeyBS)
)

// Binding is one entry of a control group.
type Binding struct {
	Key    byte
	Action Action
	Label  string
}

// Group is the ordered set of bindings active in one state.
type Group []Binding

var (
	Keyboard = Group{
		{KeyEscape, KeyboardExit, "Exit keyboard"},
	}
	Run = Group{
		{KeyKeyboard, KeyboardEnter, "Use keyboard"},
		{KeyPause, Pause, "Pause CPU"},
		{KeyReset, Reset, "Reset"},
		{KeyShow, ShowMenu, "Show..."},
	}
	Stop = Group{
		{KeyKeyboard, KeyboardEnter, "Use keyboard"},
		{KeyPause, Resume, "Unpause CPU"},
		{'1', StepCycle, "Single cycle"},
		{'2', StepIn, "Step in"},
		{'3', StepOver, "Step over"},
		{'4', StepOut, "Step out"},
		{KeyReset, Reset, "Reset"},
		{KeyShow, ShowMenu, "Show..."},
	}
	Show = Group{
		{KeyEscape, MenuBack, "Back"},
		{'1', ToggleStats, "Show statistics"},
		{'2', TogglePC, "Show PC"},
		{'3', ToggleRegs, "Show regs"},
		{'4', ToggleSRegs, "Show sregs"},
	}
)

// Frequency keys work in every state.
var frequencyKeys = map[byte]Action{
	'-': FrequencyDown,
	'_': FrequencyDown,
	'=': FrequencyUp,
	'+': FrequencyUp,
}

// For returns the group active in state.
func For(state session.State) Group {
	switch state {
	case session.KeyboardInject:
		return Keyboard
	case session.Running:
		return Run
	case session.Stopped:
		return Stop
	default:
		return Show
	}
}

// Lookup returns the action bound to b, or None.
func (g Group) Lookup(b byte) Action {
	for _, binding := range g {
		if binding.Key == b {
			return binding.Action
		}
	}
	return None
}

// Frequency returns the frequency action bound to b, or None.
func Frequency(b byte) Action {
	return frequencyKeys[b]
}

// KeyName names a key byte for logs, e.g. "Ctrl-P" or "'1'".
func KeyName(b byte) string {
	if b < 0x20 || b == KeyDelete {
		if name, ok := tcell.KeyNames[tcell.Key(b)]; ok {
			return name
		}
	}
	return fmt.Sprintf("%q", rune(b))
}

func (a Action) String() string {
	switch a {
	case KeyboardEnter:
		return "keyboard-enter"
	case KeyboardExit:
		return "keyboard-exit"
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	case Reset:
		return "reset"
	case ShowMenu:
		return "show-menu"
	case MenuBack:
		return "menu-back"
	case StepCycle:
		return "step-cycle"
	case StepIn:
		return "step-in"
	case StepOver:
		return "step-over"
	case StepOut:
		return "step-out"
	case ToggleStats:
		return "toggle-stats"
	case TogglePC:
		return "toggle-pc"
	case ToggleRegs:
		return "toggle-regs"
	case ToggleSRegs:
		return "toggle-sregs"
	case FrequencyDown:
		return "frequency-down"
	case FrequencyUp:
		return "frequency-up"
	default:
		return "none"
	}
}
