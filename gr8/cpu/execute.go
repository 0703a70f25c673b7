package cpu

// execute performs the instruction held in IR. PC still points at the
// opcode; operands are read relative to it.
func (c *CPU) execute(inst Instruction, known bool) {
	if !known {
		c.Halted = true
		return
	}

	operand := c.PC + 1
	next := c.PC + 1 + uint16(inst.Operands)
	imm := func() uint8 { return c.read(operand) }
	abs := func() uint16 {
		c.AR = c.read16(operand)
		return c.AR
	}

	switch c.IR {
	case OpNOP:
	case OpHLT:
		c.Halted = true
		next = c.PC
	case OpCALL:
		target := abs()
		c.push(uint8(next))
		c.push(uint8(next >> 8))
		c.Subs++
		next = target
	case OpRET:
		hi := c.pull()
		lo := c.pull()
		next = uint16(hi)<<8 | uint16(lo)
	case OpJMP:
		next = abs()
	case OpBEQ:
		next = c.branch(c.Zero, abs(), next)
	case OpBNE:
		next = c.branch(!c.Zero, abs(), next)
	case OpBCS:
		next = c.branch(c.Carry, abs(), next)
	case OpBCC:
		next = c.branch(!c.Carry, abs(), next)
	case OpLDA:
		c.A = imm()
	case OpLDB:
		c.B = imm()
	case OpLDX:
		c.X = imm()
	case OpLDY:
		c.Y = imm()
	case OpLDAM:
		c.A = c.read(abs())
	case OpLDAP:
		c.AR = c.read16(abs())
		c.A = c.read(c.AR)
	case OpSTA:
		c.write(abs(), c.A)
	case OpSTX:
		c.write(abs(), c.X)
	case OpSTY:
		c.write(abs(), c.Y)
	case OpSTB:
		c.write(abs(), c.B)
	case OpADD:
		sum := uint16(c.A) + uint16(imm())
		c.A = uint8(sum)
		c.Carry = sum > 0xFF
		c.Zero = c.A == 0
	case OpSUB:
		v := imm()
		c.Carry = c.A >= v
		c.A -= v
		c.Zero = c.A == 0
	case OpCMP:
		c.compare(imm())
	case OpCMPM:
		c.compare(c.read(abs()))
	case OpINC:
		a := abs()
		v := c.read(a) + 1
		c.write(a, v)
		c.Carry = v == 0
		c.Zero = v == 0
	case OpINCC:
		a := abs()
		sum := uint16(c.read(a))
		if c.Carry {
			sum++
		}
		c.write(a, uint8(sum))
		c.Carry = sum > 0xFF
		c.Zero = uint8(sum) == 0
	case OpPUSH:
		c.push(c.A)
	case OpPULL:
		c.A = c.pull()
	case OpGPTR:
		c.X = c.read(operand)
		c.Y = c.read(operand + 1)
	case OpVST:
		c.ST = uint16(imm()) << 8
	}

	c.PC = next
}

func (c *CPU) branch(taken bool, target, next uint16) uint16 {
	if taken {
		return target
	}
	return next
}

func (c *CPU) compare(v uint8) {
	c.Carry = c.A >= v
	c.Zero = c.A == v
}
