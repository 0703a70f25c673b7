package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-gr8/gr8/addr"
	"github.com/valerio/go-gr8/gr8/program"
)

type fakeBus struct {
	input  []byte
	output []byte
	reads  int
}

func (b *fakeBus) ReadIO(address uint16) byte {
	b.reads++
	if address != addr.Keyboard || len(b.input) == 0 {
		return 0
	}
	v := b.input[0]
	b.input = b.input[1:]
	return v
}

func (b *fakeBus) WriteIO(address uint16, value byte) {
	if address == addr.Output {
		b.output = append(b.output, value)
	}
}

var (
	stepOver = TickMode{Kind: StepOver, Call: OpCALL, Return: OpRET}
	stepOut  = TickMode{Kind: StepOut, Call: OpCALL, Return: OpRET}
	stepIn   = TickMode{Kind: StepIn}
)

func newHello(t *testing.T) (*CPU, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	c := New(bus)
	require.NoError(t, c.Load(program.HelloWorld))
	return c, bus
}

func TestHelloWorldRunsToHalt(t *testing.T) {
	c, bus := newHello(t)

	status := c.Tick(20000, NormalMode)

	assert.Equal(t, StatusHalted, status)
	assert.True(t, c.Halted)
	assert.Equal(t, "Hello, World!\n", string(bus.output))
	assert.Equal(t, uint16(0x000E), c.PC)
	assert.Equal(t, uint64(1), c.Subs)
}

func TestTick_SingleCycle(t *testing.T) {
	c, _ := newHello(t)

	status := c.Tick(1, NormalMode)

	assert.Equal(t, StatusOK, status)
	assert.Equal(t, uint64(1), c.Cycles)
	assert.Equal(t, 1, c.Stage)
	assert.Equal(t, ModeExec, c.Mode)
	assert.Equal(t, OpVST, c.IR)
	assert.Equal(t, uint64(0), c.Insns)
}

func TestTick_StepInStopsOnBoundary(t *testing.T) {
	c, _ := newHello(t)

	status := c.Tick(1, stepIn)
	assert.Equal(t, StatusDone, status)
	assert.Equal(t, uint16(0x0002), c.PC)
	assert.Equal(t, uint64(1), c.Insns)
	assert.Equal(t, uint64(2), c.Cycles)
	assert.Equal(t, uint16(0xFF00), c.ST)

	status = c.Tick(1, stepIn)
	assert.Equal(t, StatusDone, status)
	assert.Equal(t, uint16(0x0005), c.PC)
	assert.Equal(t, uint8(0x24), c.X)
	assert.Equal(t, uint8(0x00), c.Y)
}

func TestTick_StepInFinishesPartialInstruction(t *testing.T) {
	c, _ := newHello(t)

	c.Tick(1, NormalMode)
	status := c.Tick(1, stepIn)

	assert.Equal(t, StatusDone, status)
	assert.Equal(t, uint16(0x0002), c.PC)
	assert.Equal(t, uint64(2), c.Cycles)
}

func TestTick_StepOverCall(t *testing.T) {
	c, bus := newHello(t)
	for i := 0; i < 4; i++ {
		require.Equal(t, StatusDone, c.Tick(1, stepIn))
	}
	require.Equal(t, uint16(0x000B), c.PC)

	status := c.Tick(8192, stepOver)

	assert.Equal(t, StatusDone, status)
	assert.Equal(t, uint16(0x000E), c.PC)
	assert.Equal(t, "Hello, World!\n", string(bus.output))
	assert.Equal(t, uint16(0xFF00), c.ST)
}

func TestTick_StepOverPlainInstruction(t *testing.T) {
	c, _ := newHello(t)

	status := c.Tick(8192, stepOver)

	assert.Equal(t, StatusDone, status)
	assert.Equal(t, uint16(0x0002), c.PC)
	assert.Equal(t, uint64(2), c.Cycles)
}

func TestTick_StepOverBudgetIsHardCap(t *testing.T) {
	c, bus := newHello(t)
	for i := 0; i < 4; i++ {
		c.Tick(1, stepIn)
	}
	before := c.Cycles

	status := c.Tick(10, stepOver)

	assert.Equal(t, StatusOK, status)
	assert.Equal(t, before+10, c.Cycles)
	assert.Less(t, len(bus.output), len("Hello, World!\n"))
}

func TestTick_StepOut(t *testing.T) {
	c, bus := newHello(t)
	for i := 0; i < 5; i++ {
		c.Tick(1, stepIn)
	}
	require.Equal(t, uint16(0x000F), c.PC, "inside print")

	status := c.Tick(8192, stepOut)

	assert.Equal(t, StatusDone, status)
	assert.Equal(t, uint16(0x000E), c.PC)
	assert.Equal(t, "Hello, World!\n", string(bus.output))
}

func TestTick_HaltedDoesNotRun(t *testing.T) {
	c, _ := newHello(t)
	require.Equal(t, StatusHalted, c.Tick(20000, NormalMode))
	cycles := c.Cycles

	assert.Equal(t, StatusHalted, c.Tick(100, NormalMode))
	assert.Equal(t, StatusHalted, c.Tick(1, stepIn))
	assert.Equal(t, cycles, c.Cycles)
}

func TestTick_UnknownOpcodeHalts(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Load([]byte{0xEE}))

	assert.Equal(t, StatusHalted, c.Tick(10, NormalMode))
	assert.Equal(t, uint16(0), c.PC)
}

func TestReset(t *testing.T) {
	c, _ := newHello(t)
	c.Tick(20000, NormalMode)
	require.NotZero(t, c.RAM[0x0100])

	c.Reset()

	assert.False(t, c.Halted)
	assert.Zero(t, c.PC)
	assert.Zero(t, c.Cycles)
	assert.Zero(t, c.Insns)
	assert.Zero(t, c.Subs)
	assert.Zero(t, c.RAM[0x0100])
	assert.Equal(t, program.HelloWorld, c.Program())
}

func TestLoad_RejectsOversize(t *testing.T) {
	c, _ := newHello(t)

	err := c.Load(make([]byte, addr.ProgramLimit+1))

	require.Error(t, err)
	assert.Equal(t, program.HelloWorld, c.Program())
}

func TestKeyboardRead(t *testing.T) {
	bus := &fakeBus{input: []byte{'k'}}
	c := New(bus)
	require.NoError(t, c.Load([]byte{
		OpLDAM, 0xFC, 0xFE, // MOV A, [$fefc]
		OpSTA, 0xFD, 0xFE, // MOV [$fefd], A
		OpHLT,
	}))

	assert.Equal(t, StatusHalted, c.Tick(100, NormalMode))
	assert.Equal(t, "k", string(bus.output))
	assert.Equal(t, 1, bus.reads)
}

func TestFlags(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Load([]byte{
		OpLDA, 0xFF,
		OpADD, 0x01,
		OpHLT,
	}))

	c.Tick(100, NormalMode)

	assert.Equal(t, FlagCarry|FlagZero, c.Flags())
}
