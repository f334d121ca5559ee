package cart

// mbc3 banking registers.
//
//	0000-1FFF  RAM and clock enable (low nibble 0xA)
//	2000-3FFF  ROM bank, 7 bits (0 selects 1)
//	4000-5FFF  RAM bank 0-3, or clock register 08-0C
//	6000-7FFF  latch: writing 00 then 01 copies the clock into the latched set
//
// Clock reads come from the latched registers. Clock writes update both sets
// so software reads back what it wrote without latching again.
type mbc3 struct {
	rom    byte // 7 bits
	sel    byte
	latch  byte
	hasRTC bool

	rtc     RTC
	latched RTC
}

func newMBC3(hasRTC bool) mbc3 {
	return mbc3{rom: 1, latch: 0xFF, hasRTC: hasRTC}
}

func (r *mbc3) swapBank() int {
	if r.rom == 0 {
		return 1
	}
	return int(r.rom)
}

func (r *mbc3) selectsRTC() bool {
	return r.sel >= rtcSeconds && r.sel <= rtcDayHigh
}

func (r *mbc3) readROM(c *Cartridge, addr uint16) byte {
	if addr < 0x4000 {
		return c.ReadROM(0, addr)
	}
	return c.ReadROM(swapROMBank(c, r.swapBank()), addr-0x4000)
}

func (r *mbc3) writeROM(c *Cartridge, addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		c.SetRAMEnabled(ramEnableValue(value))
	case addr < 0x4000:
		r.rom = value & 0x7F
	case addr < 0x6000:
		r.sel = value & 0x0F
	default:
		if r.latch == 0x00 && value == 0x01 {
			r.latched = r.rtc
		}
		r.latch = value
	}
}

func (r *mbc3) readRAM(c *Cartridge, addr uint16) byte {
	switch {
	case r.sel <= 0x03:
		return c.ReadRAM(ramBank(c, int(r.sel)), addr-0xA000)
	case r.selectsRTC() && r.hasRTC && c.RAMEnabled():
		return r.latched.read(r.sel)
	}
	return 0xFF
}

func (r *mbc3) writeRAM(c *Cartridge, addr uint16, value byte) {
	switch {
	case r.sel <= 0x03:
		c.WriteRAM(ramBank(c, int(r.sel)), addr-0xA000, value)
	case r.selectsRTC() && r.hasRTC && c.RAMEnabled():
		r.rtc.write(r.sel, value)
		r.latched.write(r.sel, value)
	}
}

func (r *mbc3) regs() [4]uint16 {
	return [4]uint16{uint16(r.rom), uint16(r.sel), uint16(r.latch)}
}

func (r *mbc3) setRegs(v [4]uint16) {
	r.rom = byte(v[0]) & 0x7F
	r.sel = byte(v[1]) & 0x0F
	r.latch = byte(v[2])
}
