package cpu

// Opcodes understood by the interpreter. CALL and RET are exported because
// the debugger hands them to Tick for step-over and step-out.
const (
	OpNOP  byte = 0x00
	OpCALL byte = 0x02
	OpRET  byte = 0x03
	OpJMP  byte = 0x0E
	OpBEQ  byte = 0x0F
	OpBNE  byte = 0x10
	OpBCS  byte = 0x11
	OpBCC  byte = 0x12
	OpLDA  byte = 0x20 // MOV A, #imm
	OpLDB  byte = 0x21 // MOV B, #imm
	OpLDX  byte = 0x22 // MOV X, #imm
	OpLDY  byte = 0x23 // MOV Y, #imm
	OpLDAM byte = 0x24 // MOV A, [abs]
	OpLDAP byte = 0x25 // MOV A, (ptr)
	OpSTA  byte = 0x29 // MOV [abs], A
	OpSTX  byte = 0x2A // MOV [abs], X
	OpSTY  byte = 0x2B // MOV [abs], Y
	OpSTB  byte = 0x2C // MOV [abs], B
	OpADD  byte = 0x30 // ADD A, #imm
	OpSUB  byte = 0x31 // SUB A, #imm
	OpCMP  byte = 0x3C // CMP A, #imm
	OpCMPM byte = 0x3D // CMP A, [abs]
	OpINC  byte = 0x3F // INC [abs]
	OpINCC byte = 0x4B // INCC [abs]
	OpPUSH byte = 0x50 // PUSH A
	OpPULL byte = 0x51 // PULL A
	OpGPTR byte = 0x7B // X, Y = abs
	OpVST  byte = 0x7E // ST = #imm << 8
	OpHLT  byte = 0x7F
)

// Instruction describes one opcode: its mnemonic and operand length.
type Instruction struct {
	Name     string
	Operands int
}

// Cycles is the number of cycles the instruction takes: one to fetch the
// opcode, one per operand byte, and never fewer than two.
func (i Instruction) Cycles() int {
	if i.Operands == 0 {
		return 2
	}
	return 1 + i.Operands
}

var instructions = map[byte]Instruction{
	OpNOP:  {"NOP", 0},
	OpCALL: {"CALL", 2},
	OpRET:  {"RET", 0},
	OpJMP:  {"JMP", 2},
	OpBEQ:  {"BEQ", 2},
	OpBNE:  {"BNE", 2},
	OpBCS:  {"BCS", 2},
	OpBCC:  {"BCC", 2},
	OpLDA:  {"MOV A, #", 1},
	OpLDB:  {"MOV B, #", 1},
	OpLDX:  {"MOV X, #", 1},
	OpLDY:  {"MOV Y, #", 1},
	OpLDAM: {"MOV A, []", 2},
	OpLDAP: {"MOV A, ()", 2},
	OpSTA:  {"MOV [], A", 2},
	OpSTX:  {"MOV [], X", 2},
	OpSTY:  {"MOV [], Y", 2},
	OpSTB:  {"MOV [], B", 2},
	OpADD:  {"ADD A, #", 1},
	OpSUB:  {"SUB A, #", 1},
	OpCMP:  {"CMP A, #", 1},
	OpCMPM: {"CMP A, []", 2},
	OpINC:  {"INC []", 2},
	OpINCC: {"INCC []", 2},
	OpPUSH: {"PUSH A", 0},
	OpPULL: {"PULL A", 0},
	OpGPTR: {"GPTR", 2},
	OpVST:  {"VST #", 1},
	OpHLT:  {"HLT", 0},
}

// Lookup returns the instruction for opcode. Unknown opcodes report false
// and halt the CPU when executed.
func Lookup(opcode byte) (Instruction, bool) {
	inst, ok := instructions[opcode]
	return inst, ok
}
