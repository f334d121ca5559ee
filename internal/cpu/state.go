package cpu

// State is the CPU's snapshot for save files. It is a flat record so it can
// be written with encoding/binary.
type State struct {
	A, F, B, C, D, E, H, L byte

	SP uint16
	PC uint16

	Halted  bool
	Stopped bool
	Delay   uint8
}

func (c *CPU) State() State {
	return State{
		A: c.A, F: c.F(), B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		SP: c.SP, PC: c.PC,
		Halted: c.halted, Stopped: c.stopped, Delay: uint8(c.delay),
	}
}

func (c *CPU) Restore(s State) {
	c.Registers = Registers{A: s.A, B: s.B, C: s.C, D: s.D, E: s.E, H: s.H, L: s.L, SP: s.SP, PC: s.PC}
	c.SetF(s.F)
	c.halted = s.Halted
	c.stopped = s.Stopped
	c.delay = int(s.Delay)
}
