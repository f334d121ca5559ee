package cart

// mbc1 banking registers.
//
//	0000-1FFF  RAM enable (low nibble 0xA)
//	2000-3FFF  ROM bank, low 5 bits (0 selects 1)
//	4000-5FFF  2-bit field: ROM bank bits 5-6, or RAM bank in mode 1
//	6000-7FFF  mode select
//
// In mode 1 the 2-bit field also banks the 0x0000-0x3FFF window, reaching
// banks 0x20/0x40/0x60 there. Those banks can never appear in the swap window:
// a zero low field reads as 1, so 0x20 becomes 0x21.
type mbc1 struct {
	low  byte // 5 bits
	high byte // 2 bits
	mode byte // 1 bit
}

func newMBC1() mbc1 {
	return mbc1{low: 1}
}

func (r *mbc1) zeroBank() int {
	if r.mode == 0 {
		return 0
	}
	return int(r.high) << 5
}

func (r *mbc1) swapBank() int {
	low := r.low
	if low == 0 {
		low = 1
	}
	return int(r.high)<<5 | int(low)
}

func (r *mbc1) ramBankIndex() int {
	if r.mode == 0 {
		return 0
	}
	return int(r.high)
}

func (r *mbc1) readROM(c *Cartridge, addr uint16) byte {
	if addr < 0x4000 {
		return c.ReadROM(romBank(c, r.zeroBank()), addr)
	}
	return c.ReadROM(swapROMBank(c, r.swapBank()), addr-0x4000)
}

func (r *mbc1) writeROM(c *Cartridge, addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		c.SetRAMEnabled(ramEnableValue(value))
	case addr < 0x4000:
		r.low = value & 0x1F
	case addr < 0x6000:
		r.high = value & 0x03
	default:
		r.mode = value & 0x01
	}
}

func (r *mbc1) readRAM(c *Cartridge, addr uint16) byte {
	return c.ReadRAM(ramBank(c, r.ramBankIndex()), addr-0xA000)
}

func (r *mbc1) writeRAM(c *Cartridge, addr uint16, value byte) {
	c.WriteRAM(ramBank(c, r.ramBankIndex()), addr-0xA000, value)
}

func (r *mbc1) regs() [4]uint16 {
	return [4]uint16{uint16(r.low), uint16(r.high), uint16(r.mode)}
}

func (r *mbc1) setRegs(v [4]uint16) {
	r.low = byte(v[0]) & 0x1F
	r.high = byte(v[1]) & 0x03
	r.mode = byte(v[2]) & 0x01
}
