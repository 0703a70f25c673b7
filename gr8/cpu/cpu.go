package cpu

import (
	"github.com/pkg/errors"

	"github.com/valerio/go-gr8/gr8/addr"
)

// Bus receives the CPU's accesses to the I/O page.
type Bus interface {
	ReadIO(address uint16) byte
	WriteIO(address uint16, value byte)
}

const (
	ioPageStart uint16 = 0xFE00
	ioPageEnd   uint16 = 0xFEFF
)

// Control unit modes, shown by the debugger as CU:mode/stage.
const (
	ModeLoad uint8 = iota
	ModeExec
)

// Flag bits as returned by Flags.
const (
	FlagCarry uint8 = 1 << iota
	FlagZero
	FlagIRQ
	FlagNMI
)

// Kind selects how Tick decides to stop.
type Kind int

const (
	Normal   Kind = iota // run the whole budget
	StepIn               // run at least the budget, then up to an instruction boundary
	StepOver             // finish one instruction, treating calls as atomic
	StepOut              // run until the current subroutine returns
)

// TickMode is the stepping mode for one Tick. Call and Return are the
// opcodes that open and close a subroutine, used by StepOver and StepOut.
type TickMode struct {
	Kind   Kind
	Call   byte
	Return byte
}

// NormalMode runs cycles without any stepping condition.
var NormalMode = TickMode{Kind: Normal}

// Status is the outcome of a Tick.
type Status int

const (
	StatusOK     Status = iota // budget spent
	StatusDone                 // stepping target reached
	StatusHalted               // the CPU executed HLT or an unknown opcode
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDone:
		return "done"
	case StatusHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// CPU is a cycle-stepped GR8CPU-like processor. Instructions take effect on
// their last cycle.
type CPU struct {
	A, B, X, Y uint8
	IR         uint8
	PC         uint16
	AR         uint16
	ST         uint16
	NMI, IRQ   uint16

	Carry, Zero bool
	IRQFlag     bool
	NMIFlag     bool

	Mode   uint8
	Stage  int
	Halted bool

	Cycles uint64
	Insns  uint64
	Subs   uint64

	RAM     [1 << 16]byte
	program []byte

	bus Bus
}

// New returns a reset CPU connected to bus.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// Load replaces the program image. Images that would overlap the I/O page
// are rejected and the previous program is kept.
func (c *CPU) Load(program []byte) error {
	if len(program) > addr.ProgramLimit {
		return errors.Errorf("program is %d bytes, limit is %d", len(program), addr.ProgramLimit)
	}
	c.program = program
	return nil
}

// Program returns the loaded program image.
func (c *CPU) Program() []byte {
	return c.program
}

// Reset clears registers, flags, counters and RAM. The program is kept.
func (c *CPU) Reset() {
	c.A, c.B, c.X, c.Y = 0, 0, 0, 0
	c.IR, c.PC, c.AR, c.ST = 0, 0, 0, 0
	c.NMI, c.IRQ = 0, 0
	c.Carry, c.Zero, c.IRQFlag, c.NMIFlag = false, false, false, false
	c.Mode, c.Stage, c.Halted = ModeLoad, 0, false
	c.Cycles, c.Insns, c.Subs = 0, 0, 0
	c.RAM = [1 << 16]byte{}
}

// Flags packs the flag bits into one byte.
func (c *CPU) Flags() uint8 {
	var f uint8
	if c.Carry {
		f |= FlagCarry
	}
	if c.Zero {
		f |= FlagZero
	}
	if c.IRQFlag {
		f |= FlagIRQ
	}
	if c.NMIFlag {
		f |= FlagNMI
	}
	return f
}

// Tick runs up to budget cycles under mode. Running out of budget before a
// stepping target is reached is not an error: the CPU is left mid-way and
// the next Tick continues from there. StepIn treats the budget as a minimum
// and always stops on an instruction boundary.
func (c *CPU) Tick(budget int, mode TickMode) Status {
	depth := 0
	for n := 0; ; n++ {
		if c.Halted {
			return StatusHalted
		}
		if n >= budget && mode.Kind != StepIn {
			return StatusOK
		}
		if !c.cycle() {
			continue
		}
		if c.Halted {
			return StatusHalted
		}

		switch mode.Kind {
		case StepIn:
			if n+1 >= budget {
				return StatusDone
			}
		case StepOver:
			switch c.IR {
			case mode.Call:
				depth++
			case mode.Return:
				if depth > 0 {
					depth--
				}
			}
			if depth == 0 {
				return StatusDone
			}
		case StepOut:
			switch c.IR {
			case mode.Call:
				depth++
			case mode.Return:
				if depth == 0 {
					return StatusDone
				}
				depth--
			}
		}
	}
}

// cycle advances the control unit by one cycle and reports whether an
// instruction completed.
func (c *CPU) cycle() bool {
	c.Cycles++
	if c.Stage == 0 {
		c.IR = c.read(c.PC)
		c.Mode = ModeExec
		c.Stage = 1
		return false
	}

	c.Stage++
	inst, ok := Lookup(c.IR)
	if ok && c.Stage < inst.Cycles() {
		return false
	}

	c.execute(inst, ok)
	c.Stage = 0
	c.Mode = ModeLoad
	c.Insns++
	return true
}

func (c *CPU) read(address uint16) byte {
	if int(address) < len(c.program) {
		return c.program[address]
	}
	if address >= ioPageStart && address <= ioPageEnd {
		if c.bus == nil {
			return 0
		}
		return c.bus.ReadIO(address)
	}
	return c.RAM[address]
}

func (c *CPU) write(address uint16, value byte) {
	if address >= ioPageStart && address <= ioPageEnd {
		if c.bus != nil {
			c.bus.WriteIO(address, value)
		}
		return
	}
	c.RAM[address] = value
}

func (c *CPU) read16(address uint16) uint16 {
	return uint16(c.read(address)) | uint16(c.read(address+1))<<8
}

func (c *CPU) push(value byte) {
	c.RAM[c.ST] = value
	c.ST++
}

func (c *CPU) pull() byte {
	c.ST--
	return c.RAM[c.ST]
}
