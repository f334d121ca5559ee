package bus

import (
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
)

// State is the bus section of a save file: the boot ROM flag, the mapper
// with cartridge RAM, then work RAM and high RAM.
type State struct {
	BootEnabled bool
	Cart        cart.State
	WRAM        [wramSize]byte
	HRAM        [hramSize]byte
}

func (b *Bus) State() (State, error) {
	if b.mapper == nil {
		return State{}, fmt.Errorf("%w: no cartridge loaded", dmgerr.ErrInvalid)
	}
	return State{
		BootEnabled: b.bootEnabled,
		Cart:        b.mapper.State(),
		WRAM:        b.wram,
		HRAM:        b.hram,
	}, nil
}

// Restore applies s. Nothing changes unless the cartridge section matches
// the loaded cartridge.
func (b *Bus) Restore(s State) error {
	if b.mapper == nil {
		return fmt.Errorf("%w: no cartridge loaded", dmgerr.ErrInvalid)
	}
	if err := b.mapper.Restore(s.Cart); err != nil {
		return err
	}
	b.bootEnabled = s.BootEnabled && len(b.boot) > 0
	b.wram = s.WRAM
	b.hram = s.HRAM
	return nil
}

// Encode writes s to w.
func (s *State) Encode(w io.Writer) error {
	var flag byte
	if s.BootEnabled {
		flag = 1
	}
	if _, err := w.Write([]byte{flag}); err != nil {
		return err
	}
	if err := s.Cart.Encode(w); err != nil {
		return err
	}
	if _, err := w.Write(s.WRAM[:]); err != nil {
		return err
	}
	_, err := w.Write(s.HRAM[:])
	return err
}

// DecodeState reads a State written by Encode.
func DecodeState(r io.Reader) (*State, error) {
	var flag [1]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return nil, fmt.Errorf("%w: boot flag: %v", dmgerr.ErrInvalid, err)
	}
	if flag[0] > 1 {
		return nil, fmt.Errorf("%w: boot flag %02X", dmgerr.ErrInvalid, flag[0])
	}
	c, err := cart.DecodeState(r)
	if err != nil {
		return nil, err
	}
	s := &State{BootEnabled: flag[0] == 1, Cart: c}
	if _, err := io.ReadFull(r, s.WRAM[:]); err != nil {
		return nil, fmt.Errorf("%w: work RAM: %v", dmgerr.ErrInvalid, err)
	}
	if _, err := io.ReadFull(r, s.HRAM[:]); err != nil {
		return nil, fmt.Errorf("%w: high RAM: %v", dmgerr.ErrInvalid, err)
	}
	return s, nil
}

// Export writes the bus section of a save file.
func (b *Bus) Export(w io.Writer) error {
	s, err := b.State()
	if err != nil {
		return err
	}
	return s.Encode(w)
}

// Import reads a section written by Export. Nothing changes unless the whole
// section decodes and matches the loaded cartridge.
func (b *Bus) Import(r io.Reader) error {
	if b.mapper == nil {
		return fmt.Errorf("%w: no cartridge loaded", dmgerr.ErrInvalid)
	}
	s, err := DecodeState(r)
	if err != nil {
		return err
	}
	return b.Restore(*s)
}
