package cart

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
)

// State is a snapshot of the mapper control registers, the clock and the
// cartridge RAM. It is the cartridge section of a save file.
type State struct {
	Kind       Kind
	RAMEnabled bool
	Regs       [4]uint16
	RTC        RTC
	Latched    RTC
	RAM        []byte
}

// stateHeader is the fixed-size part of State on the wire, little-endian.
type stateHeader struct {
	Kind       uint8
	RAMEnabled uint8
	Regs       [4]uint16
	RTC        [5]uint8
	Latched    [5]uint8
	RAMLength  uint32
}

// State captures the mapper's current registers and RAM.
func (m *Mapper) State() State {
	s := State{
		Kind:       m.kind,
		RAMEnabled: m.cart.RAMEnabled(),
		RAM:        m.cart.SaveRAM(),
	}
	switch m.kind {
	case MBC1:
		s.Regs = m.mbc1.regs()
	case MBC2:
		s.Regs = m.mbc2.regs()
	case MBC3:
		s.Regs = m.mbc3.regs()
		s.RTC, s.Latched = m.mbc3.rtc, m.mbc3.latched
	case MBC5:
		s.Regs = m.mbc5.regs()
	}
	return s
}

// Restore puts the mapper back into s. The snapshot must come from a
// cartridge with the same controller and RAM size; otherwise nothing changes.
func (m *Mapper) Restore(s State) error {
	if s.Kind != m.kind {
		return fmt.Errorf("%w: state is for %s, cartridge is %s", dmgerr.ErrInvalid, s.Kind, m.kind)
	}
	if err := m.cart.LoadRAM(s.RAM); err != nil {
		return err
	}
	m.cart.SetRAMEnabled(s.RAMEnabled)
	switch m.kind {
	case MBC1:
		m.mbc1.setRegs(s.Regs)
	case MBC2:
		m.mbc2.setRegs(s.Regs)
	case MBC3:
		m.mbc3.setRegs(s.Regs)
		m.mbc3.rtc = rtcFromBytes(s.RTC.bytes())
		m.mbc3.latched = rtcFromBytes(s.Latched.bytes())
	case MBC5:
		m.mbc5.setRegs(s.Regs)
	}
	return nil
}

// Encode writes s to w.
func (s State) Encode(w io.Writer) error {
	h := stateHeader{
		Kind:      uint8(s.Kind),
		Regs:      s.Regs,
		RTC:       s.RTC.bytes(),
		Latched:   s.Latched.bytes(),
		RAMLength: uint32(len(s.RAM)),
	}
	if s.RAMEnabled {
		h.RAMEnabled = 1
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return err
	}
	buf.Write(s.RAM)
	_, err := w.Write(buf.Bytes())
	return err
}

// maxStateRAM bounds the RAM length accepted from a save file: 16 banks.
const maxStateRAM = 16 * RAMBankSize

// DecodeState reads a State written by Encode.
func DecodeState(r io.Reader) (State, error) {
	var h stateHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return State{}, fmt.Errorf("%w: cartridge state: %v", dmgerr.ErrInvalid, err)
	}
	if h.RAMLength > maxStateRAM || (h.RAMLength%RAMBankSize != 0 && h.RAMLength != MBC2RAMSize) {
		return State{}, fmt.Errorf("%w: cartridge state RAM length %d", dmgerr.ErrInvalid, h.RAMLength)
	}
	s := State{
		Kind:       Kind(h.Kind),
		RAMEnabled: h.RAMEnabled != 0,
		Regs:       h.Regs,
		RTC:        rtcFromBytes(h.RTC),
		Latched:    rtcFromBytes(h.Latched),
	}
	if h.RAMLength > 0 {
		s.RAM = make([]byte, h.RAMLength)
		if _, err := io.ReadFull(r, s.RAM); err != nil {
			return State{}, fmt.Errorf("%w: cartridge RAM: %v", dmgerr.ErrInvalid, err)
		}
	}
	return s, nil
}
