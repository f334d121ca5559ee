// Package bus routes CPU addresses to the cartridge, internal RAM, the boot
// ROM, the interrupt registers and the peripheral register blocks.
package bus

import (
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupt"
)

// Device is a register block mapped onto the bus. It receives the full CPU
// address.
type Device interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// Clocker is a device that advances with the bus clock.
type Clocker interface {
	Device
	Clock()
}

// Devices are the peripherals outside the core. A nil entry is open bus.
type Devices struct {
	Video  Device // 8000-9FFF, FE00-FE9F, FF40-FF4B
	Audio  Device // FF10-FF3F
	Timer  Clocker
	Serial Clocker
	Input  Device
}

const (
	wramSize = 0x2000
	hramSize = 0x7F

	bootDisableAddr uint16 = 0xFF50
)

type Bus struct {
	mapper *cart.Mapper
	irq    *interrupt.Controller
	dev    Devices

	boot        []byte
	bootEnabled bool

	wram [wramSize]byte
	hram [hramSize]byte
}

// New returns a bus over mapper and irq. A nil mapper reads as an empty slot.
func New(mapper *cart.Mapper, irq *interrupt.Controller) *Bus {
	return &Bus{mapper: mapper, irq: irq}
}

// Attach connects the peripherals.
func (b *Bus) Attach(d Devices) { b.dev = d }

// SetBootROM maps rom over the bottom of the ROM window until the program
// writes a non-zero value to FF50. A nil rom leaves the cartridge visible.
func (b *Bus) SetBootROM(rom []byte) {
	b.boot = rom
	b.bootEnabled = len(rom) > 0
}

func (b *Bus) BootEnabled() bool                 { return b.bootEnabled }
func (b *Bus) Mapper() *cart.Mapper              { return b.mapper }
func (b *Bus) Interrupts() *interrupt.Controller { return b.irq }

// Clock advances the clocked peripherals by one tick.
func (b *Bus) Clock() {
	if b.dev.Timer != nil {
		b.dev.Timer.Clock()
	}
	if b.dev.Serial != nil {
		b.dev.Serial.Clock()
	}
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case b.bootEnabled && int(addr) < len(b.boot):
		return b.boot[addr]
	case addr < 0x8000:
		if b.mapper == nil {
			return 0xFF
		}
		return b.mapper.ReadROM(addr)
	case addr < 0xA000:
		return readDevice(b.dev.Video, addr)
	case addr < 0xC000:
		if b.mapper == nil {
			return 0xFF
		}
		return b.mapper.ReadRAM(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00: // echo of C000-DDFF
		return b.wram[addr-0xE000]
	case addr < 0xFEA0:
		return readDevice(b.dev.Video, addr)
	case addr < 0xFF00:
		return 0xFF
	case addr == 0xFF00:
		return readDevice(b.dev.Input, addr)
	case addr == 0xFF01 || addr == 0xFF02:
		return readDevice(b.dev.Serial, addr)
	case addr >= 0xFF04 && addr <= 0xFF07:
		return readDevice(b.dev.Timer, addr)
	case addr == interrupt.FlagAddr:
		return b.irq.Read(addr)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return readDevice(b.dev.Audio, addr)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return readDevice(b.dev.Video, addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == interrupt.EnableAddr:
		return b.irq.Read(addr)
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		if b.mapper != nil {
			b.mapper.WriteROM(addr, value)
		}
	case addr < 0xA000:
		writeDevice(b.dev.Video, addr, value)
	case addr < 0xC000:
		if b.mapper != nil {
			b.mapper.WriteRAM(addr, value)
		}
	case addr < 0xE000:
		b.wram[addr-0xC000] = value
	case addr < 0xFE00:
		b.wram[addr-0xE000] = value
	case addr < 0xFEA0:
		writeDevice(b.dev.Video, addr, value)
	case addr < 0xFF00:
		// unusable
	case addr == 0xFF00:
		writeDevice(b.dev.Input, addr, value)
	case addr == 0xFF01 || addr == 0xFF02:
		writeDevice(b.dev.Serial, addr, value)
	case addr >= 0xFF04 && addr <= 0xFF07:
		writeDevice(b.dev.Timer, addr, value)
	case addr == interrupt.FlagAddr:
		b.irq.Write(addr, value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		writeDevice(b.dev.Audio, addr, value)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		writeDevice(b.dev.Video, addr, value)
	case addr == bootDisableAddr:
		if value != 0 {
			b.bootEnabled = false
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == interrupt.EnableAddr:
		b.irq.Write(addr, value)
	}
}

// readDevice reads from d, or returns open bus when nothing is attached.
func readDevice(d Device, addr uint16) byte {
	if d == nil {
		return 0xFF
	}
	return d.Read(addr)
}

func writeDevice(d Device, addr uint16, value byte) {
	if d == nil {
		return
	}
	d.Write(addr, value)
}
