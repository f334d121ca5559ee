package cpu

// Flag bits in F. Bits 0-3 always read as zero.
const (
	FlagZ byte = 1 << 7
	FlagN byte = 1 << 6
	FlagH byte = 1 << 5
	FlagC byte = 1 << 4
)

// Registers is the SM83 register file. F is only reachable through F and
// SetF, which drop the low nibble.
type Registers struct {
	A, B, C, D, E, H, L byte
	f                   byte

	SP uint16
	PC uint16
}

func (r *Registers) F() byte             { return r.f & 0xF0 }
func (r *Registers) SetF(v byte)         { r.f = v & 0xF0 }
func (r *Registers) Flag(mask byte) bool { return r.f&mask != 0 }

func (r *Registers) AF() uint16     { return uint16(r.A)<<8 | uint16(r.F()) }
func (r *Registers) SetAF(v uint16) { r.A = byte(v >> 8); r.SetF(byte(v)) }
func (r *Registers) BC() uint16     { return uint16(r.B)<<8 | uint16(r.C) }
func (r *Registers) SetBC(v uint16) { r.B = byte(v >> 8); r.C = byte(v) }
func (r *Registers) DE() uint16     { return uint16(r.D)<<8 | uint16(r.E) }
func (r *Registers) SetDE(v uint16) { r.D = byte(v >> 8); r.E = byte(v) }
func (r *Registers) HL() uint16     { return uint16(r.H)<<8 | uint16(r.L) }
func (r *Registers) SetHL(v uint16) { r.H = byte(v >> 8); r.L = byte(v) }

func (r *Registers) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= FlagZ
	}
	if n {
		f |= FlagN
	}
	if h {
		f |= FlagH
	}
	if carry {
		f |= FlagC
	}
	r.f = f
}

func (r *Registers) setFlag(mask byte, on bool) {
	if on {
		r.f |= mask
	} else {
		r.f &^= mask
	}
}
