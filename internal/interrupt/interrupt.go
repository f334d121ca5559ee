// Package interrupt holds the IE/IF register pair and the master enable of
// the DMG interrupt controller.
package interrupt

import "fmt"

// Kind is an interrupt source. Its value is the bit index in IE and IF, and
// lower values have higher priority.
type Kind uint8

const (
	VBlank Kind = iota
	LCDStat
	Timer
	Serial
	Input
)

// Count is the number of interrupt kinds.
const Count = 5

// Register addresses.
const (
	FlagAddr   uint16 = 0xFF0F
	EnableAddr uint16 = 0xFFFF
)

const kindMask = 1<<Count - 1

// Vector returns the handler address the CPU jumps to when servicing k.
func (k Kind) Vector() uint16 { return 0x0040 + 8*uint16(k) }

func (k Kind) String() string {
	switch k {
	case VBlank:
		return "vblank"
	case LCDStat:
		return "lcd-stat"
	case Timer:
		return "timer"
	case Serial:
		return "serial"
	case Input:
		return "input"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Requester is implemented by anything peripherals can raise interrupts on.
type Requester interface {
	Raise(k Kind)
}

// Controller is the interrupt state machine. The CPU polls it once per
// instruction boundary.
type Controller struct {
	enable byte // IE, all 8 bits kept
	flag   byte // IF, only bits 0-4 stored

	master bool
	delay  int // instructions left before a pending EI takes effect
}

func New() *Controller { return &Controller{} }

// Raise requests interrupt k by setting its IF bit.
func (c *Controller) Raise(k Kind) {
	if k < Count {
		c.flag |= 1 << k
	}
}

// Read returns IE or IF. IF reads with bits 5-7 set.
func (c *Controller) Read(addr uint16) byte {
	switch addr {
	case FlagAddr:
		return c.flag | ^byte(kindMask)
	case EnableAddr:
		return c.enable
	}
	return 0xFF
}

func (c *Controller) Write(addr uint16, value byte) {
	switch addr {
	case FlagAddr:
		c.flag = value & kindMask
	case EnableAddr:
		c.enable = value
	}
}

// Pending returns the highest-priority kind that is both requested and
// enabled, regardless of the master enable.
func (c *Controller) Pending() (Kind, bool) {
	p := c.enable & c.flag & kindMask
	if p == 0 {
		return 0, false
	}
	for k := VBlank; k < Count; k++ {
		if p&(1<<k) != 0 {
			return k, true
		}
	}
	return 0, false
}

// Acknowledge clears k's request bit and the master enable, as servicing
// does.
func (c *Controller) Acknowledge(k Kind) {
	c.flag &^= 1 << k
	c.master = false
	c.delay = 0
}

func (c *Controller) MasterEnabled() bool { return c.master }

// Enable sets the master enable immediately (RETI).
func (c *Controller) Enable() {
	c.master = true
	c.delay = 0
}

// EnableDelayed arms the master enable to turn on after the next instruction
// completes (EI). Step is called once after EI itself and once after the
// instruction that follows it.
func (c *Controller) EnableDelayed() {
	if !c.master && c.delay == 0 {
		c.delay = 2
	}
}

// Disable clears the master enable and cancels a pending EI (DI).
func (c *Controller) Disable() {
	c.master = false
	c.delay = 0
}

// Step counts down a pending EI. The CPU calls it after every executed
// instruction.
func (c *Controller) Step() {
	if c.delay == 0 {
		return
	}
	c.delay--
	if c.delay == 0 {
		c.master = true
	}
}

// State is the controller's register snapshot.
type State struct {
	Enable byte
	Flag   byte
	Master bool
	Delay  uint8
}

func (c *Controller) State() State {
	return State{Enable: c.enable, Flag: c.flag, Master: c.master, Delay: uint8(c.delay)}
}

func (c *Controller) Restore(s State) {
	c.enable = s.Enable
	c.flag = s.Flag & kindMask
	c.master = s.Master
	c.delay = int(s.Delay)
	if c.delay > 2 {
		c.delay = 2
	}
}
