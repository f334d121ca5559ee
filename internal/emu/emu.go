// Package emu wires the cartridge, bus, interrupt controller and CPU into a
// machine and exposes the core's outer interface: load, memory access,
// clocking, interrupt requests and save files.
package emu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupt"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/savefile"
)

// BootROMSize is the length of the DMG boot ROM.
const BootROMSize = 0x100

var errNotLoaded = fmt.Errorf("%w: no cartridge loaded", dmgerr.ErrInvalid)

type Machine struct {
	cfg     Config
	devices bus.Devices

	// core components, nil while unloaded
	header *cart.Header
	irq    *interrupt.Controller
	bus    *bus.Bus
	cpu    *cpu.CPU

	cycles   uint64
	rtcTicks int
}

var _ interrupt.Requester = (*Machine)(nil)

func New(cfg Config) *Machine {
	cfg.Defaults()
	return &Machine{cfg: cfg}
}

// Load validates image and replaces the running cartridge with it. boot is
// an optional 256-byte boot ROM; without one the CPU starts in the post-boot
// state at 0x0100. On error the previous cartridge keeps running.
//
// The machine reads ROM directly from image, which must not be modified
// while it is loaded.
func (m *Machine) Load(image, boot []byte) error {
	if boot != nil && len(boot) != BootROMSize {
		return fmt.Errorf("%w: boot ROM is %d bytes, want %d", dmgerr.ErrInvalid, len(boot), BootROMSize)
	}
	mapper, err := cart.Load(image)
	if err != nil {
		return err
	}

	irq := interrupt.New()
	b := bus.New(mapper, irq)
	b.Attach(m.devices)
	c := cpu.New(b, irq)
	if boot != nil {
		b.SetBootROM(boot)
	} else {
		c.ResetNoBoot()
	}
	if m.cfg.Trace {
		c.SetTrace(m.trace)
	}

	m.header = mapper.Cartridge().Header()
	m.irq, m.bus, m.cpu = irq, b, c
	m.cycles, m.rtcTicks = 0, 0
	return nil
}

// Unload drops the cartridge. Memory reads return open bus afterwards.
func (m *Machine) Unload() {
	m.header = nil
	m.irq, m.bus, m.cpu = nil, nil, nil
	m.cycles, m.rtcTicks = 0, 0
}

func (m *Machine) Loaded() bool         { return m.bus != nil }
func (m *Machine) Header() *cart.Header { return m.header }
func (m *Machine) Cycles() uint64       { return m.cycles }

// Attach connects the peripherals outside the core. They stay attached
// across loads.
func (m *Machine) Attach(d bus.Devices) {
	m.devices = d
	if m.bus != nil {
		m.bus.Attach(d)
	}
}

// Registers returns a copy of the CPU registers.
func (m *Machine) Registers() cpu.Registers {
	if m.cpu == nil {
		return cpu.Registers{}
	}
	return m.cpu.Registers
}

func (m *Machine) Read(addr uint16) byte {
	if m.bus == nil {
		return 0xFF
	}
	return m.bus.Read(addr)
}

func (m *Machine) Write(addr uint16, value byte) {
	if m.bus != nil {
		m.bus.Write(addr, value)
	}
}

// Clock advances the machine by one tick: the CPU, then the clocked
// peripherals, then the cartridge clock once per emulated second. A
// *cpu.Fault stops the machine on the faulting opcode.
func (m *Machine) Clock() error {
	if m.cpu == nil {
		return errNotLoaded
	}
	if err := m.cpu.Clock(); err != nil {
		return err
	}
	m.bus.Clock()
	m.cycles++
	m.rtcTicks++
	if m.rtcTicks >= m.cfg.ClockRate {
		m.rtcTicks = 0
		m.bus.Mapper().TickRTC()
	}
	return nil
}

// Step clocks until the current instruction (or interrupt dispatch, or idle
// slot) completes and returns the ticks spent.
func (m *Machine) Step() (int, error) {
	n := 0
	for {
		if err := m.Clock(); err != nil {
			return n, err
		}
		n++
		if m.cpu.Ready() {
			return n, nil
		}
	}
}

// RunCycles clocks the machine n times or until an error.
func (m *Machine) RunCycles(n int) error {
	for i := 0; i < n; i++ {
		if err := m.Clock(); err != nil {
			return err
		}
	}
	return nil
}

// RaiseInterrupt requests k. An input interrupt also ends STOP mode.
func (m *Machine) RaiseInterrupt(k interrupt.Kind) {
	if m.irq == nil {
		return
	}
	m.irq.Raise(k)
	if k == interrupt.Input {
		m.cpu.Resume()
	}
}

// Raise lets peripherals request interrupts on the machine.
func (m *Machine) Raise(k interrupt.Kind) { m.RaiseInterrupt(k) }

func (m *Machine) trace(in cpu.Instruction) {
	r := m.cpu.Registers
	m.cfg.Logger.Printf("%-28s A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X",
		in, r.A, r.F(), r.B, r.C, r.D, r.E, r.H, r.L, r.SP)
}

// SaveBattery returns a copy of the cartridge RAM, or false if the cartridge
// has none. The caller manages the .sav file.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.bus == nil {
		return nil, false
	}
	data := m.bus.Mapper().Cartridge().SaveRAM()
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

// LoadBattery replaces the cartridge RAM with data from a .sav file.
func (m *Machine) LoadBattery(data []byte) error {
	if m.bus == nil {
		return errNotLoaded
	}
	return m.bus.Mapper().Cartridge().LoadRAM(data)
}

// Export writes a save file with the bus, CPU and interrupt state.
func (m *Machine) Export(w io.Writer) error {
	if m.bus == nil {
		return errNotLoaded
	}
	bs, err := m.bus.State()
	if err != nil {
		return err
	}
	var payload bytes.Buffer
	if err := bs.Encode(&payload); err != nil {
		return err
	}
	cs := m.cpu.State()
	if err := binary.Write(&payload, binary.LittleEndian, &cs); err != nil {
		return err
	}
	is := m.irq.State()
	if err := binary.Write(&payload, binary.LittleEndian, &is); err != nil {
		return err
	}
	return savefile.Encode(w, uint32(m.cfg.Now().Unix()), payload.Bytes())
}

// Import restores a save file written by Export. The whole file is decoded
// and checked against the loaded cartridge before anything changes.
func (m *Machine) Import(r io.Reader) error {
	if m.bus == nil {
		return errNotLoaded
	}
	_, payload, err := savefile.Decode(r)
	if err != nil {
		return err
	}
	rd := bytes.NewReader(payload)
	bs, err := bus.DecodeState(rd)
	if err != nil {
		return err
	}
	var cs cpu.State
	if err := binary.Read(rd, binary.LittleEndian, &cs); err != nil {
		return fmt.Errorf("%w: CPU state: %v", dmgerr.ErrInvalid, err)
	}
	var is interrupt.State
	if err := binary.Read(rd, binary.LittleEndian, &is); err != nil {
		return fmt.Errorf("%w: interrupt state: %v", dmgerr.ErrInvalid, err)
	}
	if rd.Len() != 0 {
		return fmt.Errorf("%w: %d trailing payload bytes", dmgerr.ErrInvalid, rd.Len())
	}

	if err := m.bus.Restore(*bs); err != nil {
		return err
	}
	m.cpu.Restore(cs)
	m.irq.Restore(is)
	return nil
}

// ExportFile writes a save file to path.
func (m *Machine) ExportFile(path string) error {
	var buf bytes.Buffer
	if err := m.Export(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ImportFile restores the save file at path.
func (m *Machine) ImportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Import(f)
}
