package cart

// mbc0 is a cartridge without a bank controller: bank 0 at 0x0000-0x3FFF,
// bank 1 at 0x4000-0x7FFF and at most one RAM bank, always enabled.
type mbc0 struct{}

func newMBC0(c *Cartridge) mbc0 {
	c.SetRAMEnabled(c.RAMBanks() > 0)
	return mbc0{}
}

func (mbc0) readROM(c *Cartridge, addr uint16) byte {
	if addr < 0x4000 {
		return c.ReadROM(0, addr)
	}
	return c.ReadROM(romBank(c, 1), addr-0x4000)
}
