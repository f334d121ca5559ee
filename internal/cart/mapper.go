package cart

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
)

// Kind is the bank controller fitted to a cartridge.
type Kind uint8

const (
	MBC0 Kind = iota // no controller, ROM (+RAM) only
	MBC1
	MBC2
	MBC3
	MBC5
)

func (k Kind) String() string {
	switch k {
	case MBC0:
		return "MBC0"
	case MBC1:
		return "MBC1"
	case MBC2:
		return "MBC2"
	case MBC3:
		return "MBC3"
	case MBC5:
		return "MBC5"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindOf maps the header's cartridge type byte to a controller.
func KindOf(mapper byte) (Kind, error) {
	switch mapper {
	case 0x00, 0x08, 0x09:
		return MBC0, nil
	case 0x01, 0x02, 0x03:
		return MBC1, nil
	case 0x05, 0x06:
		return MBC2, nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return MBC3, nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return MBC5, nil
	}
	return 0, fmt.Errorf("%w: cartridge type %02X", dmgerr.ErrUnsupported, mapper)
}

// hasTimer reports whether an MBC3 cartridge type includes the clock.
func hasTimer(mapper byte) bool {
	return mapper == 0x0F || mapper == 0x10
}

// Mapper translates CPU addresses in the cartridge windows into cartridge
// bank accesses. Exactly one variant's registers are live, selected by kind.
//
// ROM window: 0x0000-0x7FFF. Writes there go to the control registers.
// RAM window: 0xA000-0xBFFF.
type Mapper struct {
	kind Kind
	cart *Cartridge

	mbc0 mbc0
	mbc1 mbc1
	mbc2 mbc2
	mbc3 mbc3
	mbc5 mbc5
}

// Load validates image and returns a mapper for it.
func Load(image []byte) (*Mapper, error) {
	c, err := New(image)
	if err != nil {
		return nil, err
	}
	return NewMapper(c)
}

// NewMapper selects the variant named by the cartridge header and puts its
// registers in their power-on state.
func NewMapper(c *Cartridge) (*Mapper, error) {
	k, err := KindOf(c.Header().Mapper)
	if err != nil {
		return nil, err
	}
	m := &Mapper{kind: k, cart: c}
	m.reset()
	return m, nil
}

func (m *Mapper) reset() {
	m.cart.SetRAMEnabled(false)
	switch m.kind {
	case MBC0:
		m.mbc0 = newMBC0(m.cart)
	case MBC1:
		m.mbc1 = newMBC1()
	case MBC2:
		m.mbc2 = newMBC2()
	case MBC3:
		m.mbc3 = newMBC3(hasTimer(m.cart.Header().Mapper))
	case MBC5:
		m.mbc5 = newMBC5()
	}
}

func (m *Mapper) Kind() Kind            { return m.kind }
func (m *Mapper) Cartridge() *Cartridge { return m.cart }

// ReadROM reads from the ROM window.
func (m *Mapper) ReadROM(addr uint16) byte {
	switch m.kind {
	case MBC0:
		return m.mbc0.readROM(m.cart, addr)
	case MBC1:
		return m.mbc1.readROM(m.cart, addr)
	case MBC2:
		return m.mbc2.readROM(m.cart, addr)
	case MBC3:
		return m.mbc3.readROM(m.cart, addr)
	case MBC5:
		return m.mbc5.readROM(m.cart, addr)
	}
	return 0xFF
}

// WriteROM writes to the ROM window, updating the control registers.
func (m *Mapper) WriteROM(addr uint16, value byte) {
	switch m.kind {
	case MBC0:
		// no registers
	case MBC1:
		m.mbc1.writeROM(m.cart, addr, value)
	case MBC2:
		m.mbc2.writeROM(m.cart, addr, value)
	case MBC3:
		m.mbc3.writeROM(m.cart, addr, value)
	case MBC5:
		m.mbc5.writeROM(m.cart, addr, value)
	}
}

// ReadRAM reads from the RAM window.
func (m *Mapper) ReadRAM(addr uint16) byte {
	switch m.kind {
	case MBC0:
		return m.cart.ReadRAM(0, addr-0xA000)
	case MBC1:
		return m.mbc1.readRAM(m.cart, addr)
	case MBC2:
		return m.mbc2.readRAM(m.cart, addr)
	case MBC3:
		return m.mbc3.readRAM(m.cart, addr)
	case MBC5:
		return m.mbc5.readRAM(m.cart, addr)
	}
	return 0xFF
}

// WriteRAM writes to the RAM window.
func (m *Mapper) WriteRAM(addr uint16, value byte) {
	switch m.kind {
	case MBC0:
		m.cart.WriteRAM(0, addr-0xA000, value)
	case MBC1:
		m.mbc1.writeRAM(m.cart, addr, value)
	case MBC2:
		m.mbc2.writeRAM(m.cart, addr, value)
	case MBC3:
		m.mbc3.writeRAM(m.cart, addr, value)
	case MBC5:
		m.mbc5.writeRAM(m.cart, addr, value)
	}
}

// TickRTC advances the MBC3 clock by one second. Other variants ignore it.
func (m *Mapper) TickRTC() {
	if m.kind == MBC3 && m.mbc3.hasRTC {
		m.mbc3.rtc.Tick()
	}
}

// RTC returns the live clock registers and whether the cartridge has a clock.
func (m *Mapper) RTC() (RTC, bool) {
	if m.kind != MBC3 || !m.mbc3.hasRTC {
		return RTC{}, false
	}
	return m.mbc3.rtc, true
}

// romBank reduces a bank number modulo the cartridge's ROM bank count.
func romBank(c *Cartridge, bank int) int {
	return bank % c.ROMBanks()
}

// swapROMBank resolves a bank for the 0x4000-0x7FFF window. A bank that
// reduces to 0 reads as bank 1, so bank 0 only ever appears at 0x0000.
func swapROMBank(c *Cartridge, bank int) int {
	if b := romBank(c, bank); b != 0 {
		return b
	}
	return 1
}

// ramBank reduces a bank number modulo the cartridge's RAM bank count.
func ramBank(c *Cartridge, bank int) int {
	if n := c.RAMBanks(); n > 0 {
		return bank % n
	}
	return bank
}

// ramEnableValue reports whether a write to the RAM-enable register turns
// RAM on. Only the low nibble counts.
func ramEnableValue(value byte) bool {
	return value&0x0F == 0x0A
}
