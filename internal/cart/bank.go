package cart

// Bank sizes in bytes.
const (
	ROMBankSize = 0x4000
	RAMBankSize = 0x2000
)

// Bank is one fixed-width ROM or RAM buffer. ROM banks alias the loaded image
// and are read-only; RAM banks own their memory.
type Bank struct {
	buf      []byte
	readOnly bool
}

// NewROMBank returns bank index of image without copying it. The image must
// outlive the bank.
func NewROMBank(image []byte, index int) Bank {
	lo := index * ROMBankSize
	hi := lo + ROMBankSize
	return Bank{buf: image[lo:hi:hi], readOnly: true}
}

// NewRAMBank allocates a RAM bank with every byte set to fill.
func NewRAMBank(fill byte) Bank {
	buf := make([]byte, RAMBankSize)
	if fill != 0 {
		for i := range buf {
			buf[i] = fill
		}
	}
	return Bank{buf: buf}
}

// Read returns the byte at offset, or 0xFF past the end of the bank.
func (b Bank) Read(offset uint16) byte {
	if int(offset) >= len(b.buf) {
		return 0xFF
	}
	return b.buf[offset]
}

// Write stores value at offset. Writes to ROM banks or past the end are dropped.
func (b Bank) Write(offset uint16, value byte) {
	if b.readOnly || int(offset) >= len(b.buf) {
		return
	}
	b.buf[offset] = value
}

func (b Bank) Len() int       { return len(b.buf) }
func (b Bank) ReadOnly() bool { return b.readOnly }
func (b Bank) Bytes() []byte  { return b.buf }
