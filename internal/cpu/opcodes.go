package cpu

import "fmt"

// opcode is one entry of the dispatch tables. exec runs the instruction with
// PC past the opcode byte(s) and returns its cost in clock ticks. A nil exec
// marks an opcode the hardware does not implement.
type opcode struct {
	mnemonic string
	exec     func(c *CPU) int
}

const (
	prefixCB   = 0xCB
	hlOperand  = 6 // register index of (HL)
	highMemory = 0xFF00
)

var (
	baseTable [256]opcode
	cbTable   [256]opcode
)

var (
	regNames  = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	rpNames   = [4]string{"BC", "DE", "HL", "SP"}
	rp2Names  = [4]string{"BC", "DE", "HL", "AF"}
	indNames  = [4]string{"(BC)", "(DE)", "(HL+)", "(HL-)"}
	condNames = [4]string{"NZ", "Z", "NC", "C"}
	aluNames  = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	rotNames  = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}
	accNames  = [8]string{"RLCA", "RRCA", "RLA", "RRA", "DAA", "CPL", "SCF", "CCF"}
)

func init() {
	for i := 0; i < 256; i++ {
		baseTable[i] = decodeBase(byte(i))
		cbTable[i] = decodeCB(byte(i))
	}
}

// cost returns fast, or slow when register index r is (HL).
func cost(r byte, fast, slow int) int {
	if r == hlOperand {
		return slow
	}
	return fast
}

// decodeBase builds the table entry for an unprefixed opcode from its
// x (bits 6-7), y (bits 3-5) and z (bits 0-2) fields.
func decodeBase(op byte) opcode {
	x, y, z := op>>6, op>>3&7, op&7
	p, q := y>>1, y&1

	switch x {
	case 0:
		return decodeBlock0(y, z, p, q)
	case 1:
		if y == hlOperand && z == hlOperand {
			return opcode{"HALT", func(c *CPU) int { c.halted = true; return 4 }}
		}
		n := 4
		if y == hlOperand || z == hlOperand {
			n = 8
		}
		return opcode{"LD " + regNames[y] + "," + regNames[z], func(c *CPU) int {
			c.setReg8(y, c.reg8(z))
			return n
		}}
	case 2:
		n := cost(z, 4, 8)
		return opcode{aluNames[y] + regNames[z], func(c *CPU) int {
			c.alu(y, c.reg8(z))
			return n
		}}
	}
	return decodeBlock3(op, y, z, p, q)
}

func decodeBlock0(y, z, p, q byte) opcode {
	switch z {
	case 0:
		switch {
		case y == 0:
			return opcode{"NOP", func(c *CPU) int { return 4 }}
		case y == 1:
			return opcode{"LD (a16),SP", func(c *CPU) int {
				c.write16(c.fetch16(), c.SP)
				return 20
			}}
		case y == 2:
			return opcode{"STOP", func(c *CPU) int {
				c.fetch8() // padding byte
				c.stopped = true
				return 4
			}}
		case y == 3:
			return opcode{"JR e8", func(c *CPU) int {
				c.jr(c.fetch8())
				return 12
			}}
		}
		cc := y - 4
		return opcode{"JR " + condNames[cc] + ",e8", func(c *CPU) int {
			e := c.fetch8()
			if !c.cond(cc) {
				return 8
			}
			c.jr(e)
			return 12
		}}

	case 1:
		if q == 0 {
			return opcode{"LD " + rpNames[p] + ",n16", func(c *CPU) int {
				c.setRP(p, c.fetch16())
				return 12
			}}
		}
		return opcode{"ADD HL," + rpNames[p], func(c *CPU) int {
			c.addHL(c.rp(p))
			return 8
		}}

	case 2:
		if q == 0 {
			return opcode{"LD " + indNames[p] + ",A", func(c *CPU) int {
				c.write8(c.indirect(p), c.A)
				return 8
			}}
		}
		return opcode{"LD A," + indNames[p], func(c *CPU) int {
			c.A = c.read8(c.indirect(p))
			return 8
		}}

	case 3:
		if q == 0 {
			return opcode{"INC " + rpNames[p], func(c *CPU) int {
				c.setRP(p, c.rp(p)+1)
				return 8
			}}
		}
		return opcode{"DEC " + rpNames[p], func(c *CPU) int {
			c.setRP(p, c.rp(p)-1)
			return 8
		}}

	case 4:
		n := cost(y, 4, 12)
		return opcode{"INC " + regNames[y], func(c *CPU) int {
			c.setReg8(y, c.inc8(c.reg8(y)))
			return n
		}}

	case 5:
		n := cost(y, 4, 12)
		return opcode{"DEC " + regNames[y], func(c *CPU) int {
			c.setReg8(y, c.dec8(c.reg8(y)))
			return n
		}}

	case 6:
		n := cost(y, 8, 12)
		return opcode{"LD " + regNames[y] + ",n8", func(c *CPU) int {
			c.setReg8(y, c.fetch8())
			return n
		}}
	}

	return opcode{accNames[y], func(c *CPU) int {
		c.accumulator(y)
		return 4
	}}
}

func decodeBlock3(op, y, z, p, q byte) opcode {
	invalid := opcode{mnemonic: fmt.Sprintf("ILLEGAL_%02X", op)}

	switch z {
	case 0:
		switch y {
		case 4:
			return opcode{"LDH (a8),A", func(c *CPU) int {
				c.write8(highMemory|uint16(c.fetch8()), c.A)
				return 12
			}}
		case 5:
			return opcode{"ADD SP,e8", func(c *CPU) int {
				c.SP = c.addSP(c.fetch8())
				return 16
			}}
		case 6:
			return opcode{"LDH A,(a8)", func(c *CPU) int {
				c.A = c.read8(highMemory | uint16(c.fetch8()))
				return 12
			}}
		case 7:
			return opcode{"LD HL,SP+e8", func(c *CPU) int {
				c.SetHL(c.addSP(c.fetch8()))
				return 12
			}}
		}
		return opcode{"RET " + condNames[y], func(c *CPU) int {
			if !c.cond(y) {
				return 8
			}
			c.PC = c.pop16()
			return 20
		}}

	case 1:
		if q == 0 {
			return opcode{"POP " + rp2Names[p], func(c *CPU) int {
				c.setRP2(p, c.pop16())
				return 12
			}}
		}
		switch p {
		case 0:
			return opcode{"RET", func(c *CPU) int {
				c.PC = c.pop16()
				return 16
			}}
		case 1:
			return opcode{"RETI", func(c *CPU) int {
				c.PC = c.pop16()
				c.irq.Enable()
				return 16
			}}
		case 2:
			return opcode{"JP HL", func(c *CPU) int {
				c.PC = c.HL()
				return 4
			}}
		}
		return opcode{"LD SP,HL", func(c *CPU) int {
			c.SP = c.HL()
			return 8
		}}

	case 2:
		switch y {
		case 4:
			return opcode{"LD (C),A", func(c *CPU) int {
				c.write8(highMemory|uint16(c.C), c.A)
				return 8
			}}
		case 5:
			return opcode{"LD (a16),A", func(c *CPU) int {
				c.write8(c.fetch16(), c.A)
				return 16
			}}
		case 6:
			return opcode{"LD A,(C)", func(c *CPU) int {
				c.A = c.read8(highMemory | uint16(c.C))
				return 8
			}}
		case 7:
			return opcode{"LD A,(a16)", func(c *CPU) int {
				c.A = c.read8(c.fetch16())
				return 16
			}}
		}
		return opcode{"JP " + condNames[y] + ",a16", func(c *CPU) int {
			addr := c.fetch16()
			if !c.cond(y) {
				return 12
			}
			c.PC = addr
			return 16
		}}

	case 3:
		switch y {
		case 0:
			return opcode{"JP a16", func(c *CPU) int {
				c.PC = c.fetch16()
				return 16
			}}
		case 1:
			// resolved by the CPU before the table lookup
			return opcode{mnemonic: "PREFIX CB"}
		case 6:
			return opcode{"DI", func(c *CPU) int {
				c.irq.Disable()
				return 4
			}}
		case 7:
			return opcode{"EI", func(c *CPU) int {
				c.irq.EnableDelayed()
				return 4
			}}
		}
		return invalid

	case 4:
		if y >= 4 {
			return invalid
		}
		return opcode{"CALL " + condNames[y] + ",a16", func(c *CPU) int {
			addr := c.fetch16()
			if !c.cond(y) {
				return 12
			}
			c.call(addr)
			return 24
		}}

	case 5:
		if q == 0 {
			return opcode{"PUSH " + rp2Names[p], func(c *CPU) int {
				c.push16(c.rp2(p))
				return 16
			}}
		}
		if p != 0 {
			return invalid
		}
		return opcode{"CALL a16", func(c *CPU) int {
			c.call(c.fetch16())
			return 24
		}}

	case 6:
		return opcode{aluNames[y] + "n8", func(c *CPU) int {
			c.alu(y, c.fetch8())
			return 8
		}}
	}

	vector := uint16(y) * 8
	return opcode{fmt.Sprintf("RST %02XH", vector), func(c *CPU) int {
		c.call(vector)
		return 16
	}}
}

// decodeCB builds the table entry for the byte following a CB prefix.
func decodeCB(op byte) opcode {
	x, y, z := op>>6, op>>3&7, op&7

	switch x {
	case 0:
		n := cost(z, 8, 16)
		return opcode{rotNames[y] + " " + regNames[z], func(c *CPU) int {
			c.setReg8(z, c.rotate(y, c.reg8(z)))
			return n
		}}
	case 1:
		n := cost(z, 8, 12)
		return opcode{fmt.Sprintf("BIT %d,%s", y, regNames[z]), func(c *CPU) int {
			c.bit(y, c.reg8(z))
			return n
		}}
	case 2:
		n := cost(z, 8, 16)
		return opcode{fmt.Sprintf("RES %d,%s", y, regNames[z]), func(c *CPU) int {
			c.setReg8(z, c.reg8(z)&^(1<<y))
			return n
		}}
	}
	n := cost(z, 8, 16)
	return opcode{fmt.Sprintf("SET %d,%s", y, regNames[z]), func(c *CPU) int {
		c.setReg8(z, c.reg8(z)|1<<y)
		return n
	}}
}

// accumulator runs the unprefixed A rotates and the flag ops in column 7 of
// block 0. The rotates always clear Z.
func (c *CPU) accumulator(y byte) {
	switch y {
	case 0, 1, 2, 3:
		c.A = c.rotate(y, c.A)
		c.setFlag(FlagZ, false)
	case 4:
		c.daa()
	case 5:
		c.A = ^c.A
		c.setFlag(FlagN|FlagH, true)
	case 6:
		c.setZNHC(c.Flag(FlagZ), false, false, true)
	case 7:
		c.setZNHC(c.Flag(FlagZ), false, false, !c.Flag(FlagC))
	}
}
