package cart

// mbc2 has a single 4-bit ROM bank register and 512 half-bytes of RAM on the
// controller. Address bit 8 picks the register in 0x0000-0x3FFF: clear for
// RAM enable, set for ROM bank. RAM repeats every 0x200 bytes across the
// window, and reads come back with the upper nibble set.
type mbc2 struct {
	bank byte // 4 bits
}

const mbc2RAMMask = 0x01FF

func newMBC2() mbc2 {
	return mbc2{bank: 1}
}

func (r *mbc2) swapBank() int {
	if r.bank == 0 {
		return 1
	}
	return int(r.bank)
}

func (r *mbc2) readROM(c *Cartridge, addr uint16) byte {
	if addr < 0x4000 {
		return c.ReadROM(0, addr)
	}
	return c.ReadROM(swapROMBank(c, r.swapBank()), addr-0x4000)
}

func (r *mbc2) writeROM(c *Cartridge, addr uint16, value byte) {
	if addr >= 0x4000 {
		return
	}
	if addr&0x0100 == 0 {
		c.SetRAMEnabled(ramEnableValue(value))
		return
	}
	r.bank = value & 0x0F
}

func (r *mbc2) readRAM(c *Cartridge, addr uint16) byte {
	return c.ReadRAM(0, (addr-0xA000)&mbc2RAMMask) | 0xF0
}

func (r *mbc2) writeRAM(c *Cartridge, addr uint16, value byte) {
	c.WriteRAM(0, (addr-0xA000)&mbc2RAMMask, value&0x0F)
}

func (r *mbc2) regs() [4]uint16 {
	return [4]uint16{uint16(r.bank)}
}

func (r *mbc2) setRegs(v [4]uint16) {
	r.bank = byte(v[0]) & 0x0F
}
