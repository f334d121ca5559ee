package cpu

func add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	z = res == 0
	h = (a&0x0F)+(b&0x0F) > 0x0F
	cy = r > 0xFF
	return
}

func adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	var ci byte
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	z = res == 0
	h = (a&0x0F)+(b&0x0F)+ci > 0x0F
	cy = r > 0xFF
	return
}

func sub8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a - b
	z = res == 0
	n = true
	h = a&0x0F < b&0x0F
	cy = a < b
	return
}

func sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	var ci byte
	if carryIn {
		ci = 1
	}
	res = a - b - ci
	z = res == 0
	n = true
	h = int(a&0x0F) < int(b&0x0F)+int(ci)
	cy = int(a) < int(b)+int(ci)
	return
}

// alu runs accumulator operation op (opcode bits 3-5) with operand v.
func (c *CPU) alu(op byte, v byte) {
	var res byte
	var z, n, h, cy bool
	carry := c.Flag(FlagC)
	switch op {
	case 0:
		res, z, n, h, cy = add8(c.A, v)
	case 1:
		res, z, n, h, cy = adc8(c.A, v, carry)
	case 2:
		res, z, n, h, cy = sub8(c.A, v)
	case 3:
		res, z, n, h, cy = sbc8(c.A, v, carry)
	case 4:
		res = c.A & v
		z, h = res == 0, true
	case 5:
		res = c.A ^ v
		z = res == 0
	case 6:
		res = c.A | v
		z = res == 0
	case 7: // CP discards the result
		_, z, n, h, cy = sub8(c.A, v)
		c.setZNHC(z, n, h, cy)
		return
	}
	c.A = res
	c.setZNHC(z, n, h, cy)
}

// inc8 and dec8 leave C alone.
func (c *CPU) inc8(v byte) byte {
	res := v + 1
	c.setZNHC(res == 0, false, v&0x0F == 0x0F, c.Flag(FlagC))
	return res
}

func (c *CPU) dec8(v byte) byte {
	res := v - 1
	c.setZNHC(res == 0, true, v&0x0F == 0x00, c.Flag(FlagC))
	return res
}

// addHL adds v to HL. H is the carry out of bit 11, C out of bit 15; Z is kept.
func (c *CPU) addHL(v uint16) {
	hl := c.HL()
	r := uint32(hl) + uint32(v)
	c.setZNHC(c.Flag(FlagZ), false, (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF, r > 0xFFFF)
	c.SetHL(uint16(r))
}

// addSP returns SP plus the signed offset e. H and C come from the unsigned
// add of e to the low byte of SP; Z and N are cleared.
func (c *CPU) addSP(e byte) uint16 {
	sp := c.SP
	u := uint16(e)
	c.setZNHC(false, false, (sp&0x000F)+(u&0x000F) > 0x000F, (sp&0x00FF)+u > 0x00FF)
	return sp + uint16(int16(int8(e)))
}

// daa corrects A to packed BCD after an addition or subtraction, using N, H
// and C left by that operation.
func (c *CPU) daa() {
	a := c.A
	carry := c.Flag(FlagC)
	if !c.Flag(FlagN) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.Flag(FlagH) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.Flag(FlagH) {
			a -= 0x06
		}
	}
	c.A = a
	c.setZNHC(a == 0, c.Flag(FlagN), false, carry)
}

// rotate runs CB shift/rotate op (opcode bits 3-5) on v.
func (c *CPU) rotate(op byte, v byte) byte {
	var res byte
	var cy bool
	switch op {
	case 0: // RLC
		res, cy = v<<1|v>>7, v&0x80 != 0
	case 1: // RRC
		res, cy = v>>1|v<<7, v&0x01 != 0
	case 2: // RL
		res, cy = v<<1, v&0x80 != 0
		if c.Flag(FlagC) {
			res |= 0x01
		}
	case 3: // RR
		res, cy = v>>1, v&0x01 != 0
		if c.Flag(FlagC) {
			res |= 0x80
		}
	case 4: // SLA
		res, cy = v<<1, v&0x80 != 0
	case 5: // SRA
		res, cy = v>>1|v&0x80, v&0x01 != 0
	case 6: // SWAP
		res = v<<4 | v>>4
	case 7: // SRL
		res, cy = v>>1, v&0x01 != 0
	}
	c.setZNHC(res == 0, false, false, cy)
	return res
}

func (c *CPU) bit(n byte, v byte) {
	c.setZNHC(v&(1<<n) == 0, false, true, c.Flag(FlagC))
}
