package cart

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
)

// Cartridge owns the validated ROM image and the cartridge RAM banks, and
// exposes bank-relative access to both. Bank selection is the mapper's job.
type Cartridge struct {
	header *Header
	rom    []Bank
	ram    []Bank

	// length of the battery image; MBC2 keeps only its 512 nibbles
	saveSize int

	ramEnabled bool
}

// MBC2RAMSize is the battery image length of an MBC2 cartridge.
const MBC2RAMSize = 0x200

// New validates image and builds a cartridge over it. ROM banks alias image,
// so the caller must not modify or release it while the cartridge is in use.
func New(image []byte) (*Cartridge, error) {
	h, err := Validate(image)
	if err != nil {
		return nil, err
	}
	c := &Cartridge{header: h}

	c.rom = make([]Bank, h.ROMBanks)
	for i := range c.rom {
		c.rom[i] = NewROMBank(image, i)
	}

	ramBanks := h.RAMBanks
	c.saveSize = ramBanks * RAMBankSize
	if k, err := KindOf(h.Mapper); err == nil && k == MBC2 {
		// MBC2 carries 512x4 bits on the controller itself; the header says no RAM.
		ramBanks = 1
		c.saveSize = MBC2RAMSize
	}
	c.ram = make([]Bank, ramBanks)
	for i := range c.ram {
		c.ram[i] = NewRAMBank(0x00)
	}
	return c, nil
}

func (c *Cartridge) Header() *Header { return c.header }
func (c *Cartridge) ROMBanks() int   { return len(c.rom) }
func (c *Cartridge) RAMBanks() int   { return len(c.ram) }

// SetRAMEnabled sets the RAM-enable latch. Only mappers call this.
func (c *Cartridge) SetRAMEnabled(on bool) { c.ramEnabled = on }
func (c *Cartridge) RAMEnabled() bool      { return c.ramEnabled }

// ReadROM returns the byte at offset in ROM bank, or 0xFF for a bank that
// does not exist.
func (c *Cartridge) ReadROM(bank int, offset uint16) byte {
	if bank < 0 || bank >= len(c.rom) {
		return 0xFF
	}
	return c.rom[bank].Read(offset)
}

// ReadRAM returns the byte at offset in RAM bank. It returns 0xFF when RAM is
// disabled or the bank does not exist.
func (c *Cartridge) ReadRAM(bank int, offset uint16) byte {
	if !c.ramEnabled || bank < 0 || bank >= len(c.ram) {
		return 0xFF
	}
	return c.ram[bank].Read(offset)
}

// WriteRAM stores value at offset in RAM bank. It does nothing when RAM is
// disabled or the bank does not exist.
func (c *Cartridge) WriteRAM(bank int, offset uint16, value byte) {
	if !c.ramEnabled || bank < 0 || bank >= len(c.ram) {
		return
	}
	c.ram[bank].Write(offset, value)
}

// SaveRAM returns a copy of every RAM bank, concatenated in bank order. This
// is the battery save file format. MBC2 saves only its 512 bytes.
func (c *Cartridge) SaveRAM() []byte {
	if c.saveSize == 0 {
		return nil
	}
	out := make([]byte, 0, len(c.ram)*RAMBankSize)
	for _, b := range c.ram {
		out = append(out, b.Bytes()...)
	}
	return out[:c.saveSize]
}

// LoadRAM replaces the RAM contents with data, which must be exactly as long
// as SaveRAM's result.
func (c *Cartridge) LoadRAM(data []byte) error {
	if len(data) != c.saveSize {
		return fmt.Errorf("%w: RAM image is %d bytes, cartridge has %d", dmgerr.ErrInvalid, len(data), c.saveSize)
	}
	for i, b := range c.ram {
		if lo := i * RAMBankSize; lo < len(data) {
			copy(b.Bytes(), data[lo:])
		}
	}
	return nil
}
