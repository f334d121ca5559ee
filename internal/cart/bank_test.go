package cart

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestBank_ROMIsReadOnly(t *testing.T) {
	image := make([]byte, 2*ROMBankSize)
	image[ROMBankSize] = 0x11

	b := NewROMBank(image, 1)
	assert.Equal(t, ROMBankSize, b.Len())
	assert.Equal(t, byte(0x11), b.Read(0))

	b.Write(0, 0x22)
	assert.Equal(t, byte(0x11), image[ROMBankSize])
}

func TestBank_RAMFillAndBounds(t *testing.T) {
	b := NewRAMBank(0xFF)
	assert.Equal(t, byte(0xFF), b.Read(RAMBankSize-1))

	b.Write(0x10, 0x00)
	assert.Equal(t, byte(0x00), b.Read(0x10))

	b.Write(RAMBankSize, 0x00)
	assert.Equal(t, byte(0xFF), b.Read(RAMBankSize))
	assert.False(t, b.ReadOnly())
}
