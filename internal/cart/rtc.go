package cart

// RTC register select values written to 0x4000-0x5FFF on MBC3.
const (
	rtcSeconds = 0x08
	rtcMinutes = 0x09
	rtcHours   = 0x0A
	rtcDayLow  = 0x0B
	rtcDayHigh = 0x0C
)

// Day-high register bits.
const (
	DayHighMSB   byte = 0x01 // bit 8 of the day counter
	DayHighHalt  byte = 0x40
	DayHighCarry byte = 0x80
)

// RTC is the MBC3 real-time clock register file.
type RTC struct {
	Seconds byte
	Minutes byte
	Hours   byte
	DayLow  byte
	DayHigh byte
}

// Day returns the 9-bit day counter.
func (r *RTC) Day() uint16 {
	return uint16(r.DayHigh&DayHighMSB)<<8 | uint16(r.DayLow)
}

func (r *RTC) setDay(day uint16) {
	r.DayLow = byte(day)
	r.DayHigh = r.DayHigh&^DayHighMSB | byte(day>>8)&DayHighMSB
}

func (r *RTC) Halted() bool { return r.DayHigh&DayHighHalt != 0 }

// Tick advances the clock by one second unless it is halted. Counters hold
// only as many bits as the hardware does, so an out-of-range value written by
// software wraps at its bit width instead of carrying.
func (r *RTC) Tick() {
	if r.Halted() {
		return
	}
	if r.Seconds = (r.Seconds + 1) & 0x3F; r.Seconds != 60 {
		return
	}
	r.Seconds = 0
	if r.Minutes = (r.Minutes + 1) & 0x3F; r.Minutes != 60 {
		return
	}
	r.Minutes = 0
	if r.Hours = (r.Hours + 1) & 0x1F; r.Hours != 24 {
		return
	}
	r.Hours = 0
	day := r.Day() + 1
	if day > 0x1FF {
		day = 0
		r.DayHigh |= DayHighCarry
	}
	r.setDay(day)
}

func (r *RTC) read(reg byte) byte {
	switch reg {
	case rtcSeconds:
		return r.Seconds
	case rtcMinutes:
		return r.Minutes
	case rtcHours:
		return r.Hours
	case rtcDayLow:
		return r.DayLow
	case rtcDayHigh:
		return r.DayHigh
	}
	return 0xFF
}

func (r *RTC) write(reg byte, value byte) {
	switch reg {
	case rtcSeconds:
		r.Seconds = value & 0x3F
	case rtcMinutes:
		r.Minutes = value & 0x3F
	case rtcHours:
		r.Hours = value & 0x1F
	case rtcDayLow:
		r.DayLow = value
	case rtcDayHigh:
		r.DayHigh = value & (DayHighMSB | DayHighHalt | DayHighCarry)
	}
}

func (r *RTC) bytes() [5]byte {
	return [5]byte{r.Seconds, r.Minutes, r.Hours, r.DayLow, r.DayHigh}
}

func rtcFromBytes(b [5]byte) RTC {
	var r RTC
	for i, v := range b {
		r.write(rtcSeconds+byte(i), v)
	}
	return r
}
