// Package cpu implements the SM83 core: register file, opcode tables and the
// per-tick execution loop.
package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupt"
)

// Bus is the memory the CPU reads and writes.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// Fault is returned when the CPU fetches an opcode the hardware does not
// implement. PC is left on the faulting opcode.
type Fault struct {
	Address  uint16
	Opcode   byte
	Extended bool
}

func (f *Fault) Error() string {
	prefix := ""
	if f.Extended {
		prefix = "CB "
	}
	return fmt.Sprintf("%v: invalid opcode %s%02X at %04X", dmgerr.ErrFatal, prefix, f.Opcode, f.Address)
}

func (f *Fault) Unwrap() error { return dmgerr.ErrFatal }

// Instruction describes one executed instruction for tracing.
type Instruction struct {
	Address  uint16
	Opcode   byte
	Extended bool
	Mnemonic string
}

func (i Instruction) String() string {
	if i.Extended {
		return fmt.Sprintf("%04X  CB %02X  %s", i.Address, i.Opcode, i.Mnemonic)
	}
	return fmt.Sprintf("%04X  %02X     %s", i.Address, i.Opcode, i.Mnemonic)
}

type CPU struct {
	Registers

	bus Bus
	irq *interrupt.Controller

	halted  bool
	stopped bool
	// ticks left on the current instruction; 0 means ready to fetch
	delay int

	trace func(Instruction)
}

// New creates a CPU in the power-on state, ready to run a boot ROM at 0x0000.
func New(bus Bus, irq *interrupt.Controller) *CPU {
	return &CPU{bus: bus, irq: irq, Registers: Registers{SP: 0xFFFE}}
}

// ResetNoBoot sets registers to the DMG post-boot state, for running a
// cartridge without a boot ROM.
func (c *CPU) ResetNoBoot() {
	c.Registers = Registers{
		A: 0x01, B: 0x00, C: 0x13, D: 0x00, E: 0xD8, H: 0x01, L: 0x4D,
		SP: 0xFFFE, PC: 0x0100,
	}
	c.SetF(0xB0)
	c.halted = false
	c.stopped = false
	c.delay = 0
	c.irq.Disable()
}

// SetTrace installs fn to be called before each instruction executes. A nil
// fn turns tracing off.
func (c *CPU) SetTrace(fn func(Instruction)) { c.trace = fn }

func (c *CPU) Halted() bool  { return c.halted }
func (c *CPU) Stopped() bool { return c.stopped }

// Ready reports whether the next Clock starts a new instruction.
func (c *CPU) Ready() bool { return c.delay == 0 }

// Resume leaves STOP mode. The machine calls it when the input interrupt is
// raised.
func (c *CPU) Resume() { c.stopped = false }

// Clock advances the CPU by one tick. Work happens on the first tick of each
// instruction; the remaining ticks only count down.
func (c *CPU) Clock() error {
	if c.delay == 0 {
		n, err := c.Step()
		if err != nil {
			return err
		}
		c.delay = n
	}
	c.delay--
	return nil
}

// Step runs one instruction boundary: wake from HALT on a pending interrupt,
// service it if the master enable allows, else execute one instruction or
// idle. It returns the cost in ticks.
//
// If Clock left an instruction part way through its cost, Step only
// finishes it and returns the ticks that were left.
func (c *CPU) Step() (int, error) {
	if c.delay > 0 {
		n := c.delay
		c.delay = 0
		return n, nil
	}
	if k, ok := c.irq.Pending(); ok {
		c.halted = false
		if c.irq.MasterEnabled() && !c.stopped {
			return c.service(k), nil
		}
	}
	if c.halted || c.stopped {
		return 4, nil
	}

	n, err := c.execute()
	if err != nil {
		return 0, err
	}
	c.irq.Step()
	return n, nil
}

func (c *CPU) service(k interrupt.Kind) int {
	c.irq.Acknowledge(k)
	c.push16(c.PC)
	c.PC = k.Vector()
	return 20
}

func (c *CPU) execute() (int, error) {
	addr := c.PC
	op := c.fetch8()
	entry, extended := &baseTable[op], false
	if op == prefixCB {
		op = c.fetch8()
		entry, extended = &cbTable[op], true
	}
	if entry.exec == nil {
		c.PC = addr
		return 0, &Fault{Address: addr, Opcode: op, Extended: extended}
	}
	if c.trace != nil {
		c.trace(Instruction{Address: addr, Opcode: op, Extended: extended, Mnemonic: entry.mnemonic})
	}
	return entry.exec(c), nil
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v))
	c.write8(addr+1, byte(v>>8))
}

// push16 writes the high byte first, as the hardware does.
func (c *CPU) push16(v uint16) {
	c.SP--
	c.write8(c.SP, byte(v>>8))
	c.SP--
	c.write8(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.read8(c.SP))
	c.SP++
	hi := uint16(c.read8(c.SP))
	c.SP++
	return lo | hi<<8
}

func (c *CPU) jr(e byte) { c.PC += uint16(int16(int8(e))) }

func (c *CPU) call(addr uint16) {
	c.push16(c.PC)
	c.PC = addr
}

// reg8 reads operand register i in B C D E H L (HL) A order.
func (c *CPU) reg8(i byte) byte {
	switch i {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case hlOperand:
		return c.read8(c.HL())
	}
	return c.A
}

func (c *CPU) setReg8(i byte, v byte) {
	switch i {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case hlOperand:
		c.write8(c.HL(), v)
	default:
		c.A = v
	}
}

func (c *CPU) rp(p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	}
	return c.SP
}

func (c *CPU) setRP(p byte, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SP = v
	}
}

// rp2 is the PUSH/POP pair table, with AF in place of SP.
func (c *CPU) rp2(p byte) uint16 {
	if p == 3 {
		return c.AF()
	}
	return c.rp(p)
}

func (c *CPU) setRP2(p byte, v uint16) {
	if p == 3 {
		c.SetAF(v)
		return
	}
	c.setRP(p, v)
}

// indirect returns the address for LD (rr),A and LD A,(rr), applying the
// HL post-increment or post-decrement.
func (c *CPU) indirect(p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	}
	hl := c.HL()
	if p == 2 {
		c.SetHL(hl + 1)
	} else {
		c.SetHL(hl - 1)
	}
	return hl
}

func (c *CPU) cond(cc byte) bool {
	switch cc {
	case 0:
		return !c.Flag(FlagZ)
	case 1:
		return c.Flag(FlagZ)
	case 2:
		return !c.Flag(FlagC)
	}
	return c.Flag(FlagC)
}
