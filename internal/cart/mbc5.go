package cart

// mbc5 banking registers.
//
//	0000-1FFF  RAM enable (low nibble 0xA)
//	2000-2FFF  ROM bank, low 8 bits
//	3000-3FFF  ROM bank, bit 8
//	4000-5FFF  RAM bank (4 bits)
//
// The 9-bit ROM register has no 0x20/0x40/0x60 hole. A zero register still
// reads as bank 1 in the swap window.
type mbc5 struct {
	rom uint16 // 9 bits
	ram byte   // 4 bits
}

func newMBC5() mbc5 {
	return mbc5{rom: 1}
}

func (r *mbc5) swapBank() int {
	if r.rom == 0 {
		return 1
	}
	return int(r.rom)
}

func (r *mbc5) readROM(c *Cartridge, addr uint16) byte {
	if addr < 0x4000 {
		return c.ReadROM(0, addr)
	}
	return c.ReadROM(swapROMBank(c, r.swapBank()), addr-0x4000)
}

func (r *mbc5) writeROM(c *Cartridge, addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		c.SetRAMEnabled(ramEnableValue(value))
	case addr < 0x3000:
		r.rom = r.rom&0x100 | uint16(value)
	case addr < 0x4000:
		r.rom = r.rom&0x0FF | uint16(value&0x01)<<8
	case addr < 0x6000:
		r.ram = value & 0x0F
	}
}

func (r *mbc5) readRAM(c *Cartridge, addr uint16) byte {
	return c.ReadRAM(ramBank(c, int(r.ram)), addr-0xA000)
}

func (r *mbc5) writeRAM(c *Cartridge, addr uint16, value byte) {
	c.WriteRAM(ramBank(c, int(r.ram)), addr-0xA000, value)
}

func (r *mbc5) regs() [4]uint16 {
	return [4]uint16{r.rom, uint16(r.ram)}
}

func (r *mbc5) setRegs(v [4]uint16) {
	r.rom = v[0] & 0x1FF
	r.ram = byte(v[1]) & 0x0F
}
