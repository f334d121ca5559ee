package cart

import (
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
	"github.com/retroenv/retrogolib/assert"
)

func loadMapper(t *testing.T, mapper, romCode, ramCode byte) *Mapper {
	t.Helper()
	m, err := Load(buildROM("MAPPER", mapper, romCode, ramCode))
	assert.NoError(t, err)
	return m
}

func TestMBC1_ROMBanking(t *testing.T) {
	m := loadMapper(t, 0x01, 0x02, 0x00) // 8 banks

	// bank 0 window in mode 0
	if got := m.ReadROM(0x0000); got != 0x00 {
		t.Fatalf("bank0 read got %02X want 00", got)
	}
	// switchable bank defaults to 1
	if got := m.ReadROM(0x4000); got != 0x01 {
		t.Fatalf("bank1 read got %02X want 01", got)
	}

	m.WriteROM(0x2000, 0x03)
	if got := m.ReadROM(0x4000); got != 0x03 {
		t.Fatalf("bank3 read got %02X want 03", got)
	}

	// writing 0 selects 1
	m.WriteROM(0x2000, 0x00)
	if got := m.ReadROM(0x4000); got != 0x01 {
		t.Fatalf("bank0->1 remap failed: got %02X", got)
	}

	// bank numbers wrap at the cartridge size
	m.WriteROM(0x2000, 0x0B)
	if got := m.ReadROM(0x4000); got != 0x03 {
		t.Fatalf("bank 0x0B on 8-bank cart got %02X want 03", got)
	}
}

func TestMBC1_LargeROMHoles(t *testing.T) {
	m := loadMapper(t, 0x01, 0x06, 0x00) // 128 banks

	for _, high := range []byte{1, 2, 3} {
		want := high << 5
		m.WriteROM(0x4000, high)
		m.WriteROM(0x2000, 0x00)
		assert.Equal(t, want+1, m.ReadROM(0x4000))

		m.WriteROM(0x2000, 0x05)
		assert.Equal(t, want+5, m.ReadROM(0x4000))
	}
}

func TestMBC1_Mode1BanksZeroWindow(t *testing.T) {
	m := loadMapper(t, 0x01, 0x05, 0x00)
	m.WriteROM(0x4000, 0x01)

	assert.Equal(t, byte(0x00), m.ReadROM(0x0000))

	m.WriteROM(0x6000, 0x01)
	assert.Equal(t, byte(0x20), m.ReadROM(0x0000))

	m.WriteROM(0x6000, 0x00)
	assert.Equal(t, byte(0x00), m.ReadROM(0x0000))
}

func TestMBC1_RAMBanking_Mode1(t *testing.T) {
	m := loadMapper(t, 0x03, 0x02, 0x03) // 4 RAM banks

	m.WriteROM(0x0000, 0x0A)
	m.WriteROM(0x6000, 0x01)
	m.WriteROM(0x4000, 0x02)

	m.WriteRAM(0xA000, 0x77)
	if got := m.ReadRAM(0xA000); got != 0x77 {
		t.Fatalf("RAM bank2 RW failed: got %02X", got)
	}
	assert.Equal(t, byte(0x77), m.Cartridge().ReadRAM(2, 0))

	// mode 0 pins RAM bank 0
	m.WriteROM(0x6000, 0x00)
	assert.Equal(t, byte(0x00), m.ReadRAM(0xA000))
}

func TestMBC1_RAMEnableLowNibble(t *testing.T) {
	m := loadMapper(t, 0x03, 0x00, 0x02)

	m.WriteRAM(0xA010, 0x42)
	assert.Equal(t, byte(0xFF), m.ReadRAM(0xA010))

	m.WriteROM(0x1FFF, 0xFA)
	m.WriteRAM(0xA010, 0x42)
	assert.Equal(t, byte(0x42), m.ReadRAM(0xA010))

	m.WriteROM(0x0000, 0x0B)
	assert.Equal(t, byte(0xFF), m.ReadRAM(0xA010))
}

func TestMBC0_FixedBanks(t *testing.T) {
	m := loadMapper(t, 0x08, 0x00, 0x02)
	assert.Equal(t, MBC0, m.Kind())

	assert.Equal(t, byte(0x01), m.ReadROM(0x4000))
	m.WriteROM(0x2000, 0x05)
	assert.Equal(t, byte(0x01), m.ReadROM(0x4000))

	// RAM needs no enable
	m.WriteRAM(0xBFFF, 0x99)
	assert.Equal(t, byte(0x99), m.ReadRAM(0xBFFF))
}

func TestMBC0_NoRAMReadsOpenBus(t *testing.T) {
	m := loadMapper(t, 0x00, 0x00, 0x00)
	m.WriteRAM(0xA000, 0x12)
	assert.Equal(t, byte(0xFF), m.ReadRAM(0xA000))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		mapper byte
		want   Kind
	}{
		{0x00, MBC0}, {0x09, MBC0},
		{0x01, MBC1}, {0x03, MBC1},
		{0x05, MBC2}, {0x06, MBC2},
		{0x0F, MBC3}, {0x13, MBC3},
		{0x19, MBC5}, {0x1E, MBC5},
	}
	for _, test := range tests {
		k, err := KindOf(test.mapper)
		assert.NoError(t, err)
		assert.Equal(t, test.want, k)
	}

	_, err := KindOf(0x20) // MBC6
	assert.True(t, errors.Is(err, dmgerr.ErrUnsupported))

	_, err = Load(buildROM("MBC7", 0x22, 0x00, 0x00))
	assert.True(t, errors.Is(err, dmgerr.ErrUnsupported))
}
