package cart

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
)

// Header field offsets inside the image.
const (
	titleStart          = 0x0134
	titleLength         = 11
	mapperOffset        = 0x0147
	romSizeOffset       = 0x0148
	ramSizeOffset       = 0x0149
	checksumStart       = 0x0134
	checksumEnd         = 0x014C
	headerChecksumAddr  = 0x014D
	globalChecksumStart = 0x014E
	headerEnd           = 0x0150
)

type Header struct {
	Title          string // 0x0134-0x013E, trailing NULs trimmed
	Mapper         byte   // 0x0147
	ROMSizeCode    byte   // 0x0148
	RAMSizeCode    byte   // 0x0149
	HeaderChecksum byte   // 0x014D
	GlobalChecksum uint16 // 0x014E-0x014F, big-endian

	ROMBanks int
	RAMBanks int
}

// ParseHeader decodes the fixed header fields and the bank counts of the size
// codes. It does not verify the checksum or the image length; see Validate.
func ParseHeader(image []byte) (*Header, error) {
	if len(image) < headerEnd {
		return nil, fmt.Errorf("%w: image of %d bytes has no header", dmgerr.ErrInvalid, len(image))
	}

	rawTitle := image[titleStart : titleStart+titleLength]
	h := &Header{
		Title:          strings.TrimRight(string(rawTitle), "\x00"),
		Mapper:         image[mapperOffset],
		ROMSizeCode:    image[romSizeOffset],
		RAMSizeCode:    image[ramSizeOffset],
		HeaderChecksum: image[headerChecksumAddr],
		GlobalChecksum: binary.BigEndian.Uint16(image[globalChecksumStart:headerEnd]),
	}

	var err error
	if h.ROMBanks, err = romBankCount(h.ROMSizeCode); err != nil {
		return nil, err
	}
	if h.RAMBanks, err = ramBankCount(h.RAMSizeCode); err != nil {
		return nil, err
	}
	return h, nil
}

// HeaderChecksum recomputes the header checksum over 0x0134-0x014C.
func HeaderChecksum(image []byte) byte {
	var sum byte
	for addr := checksumStart; addr <= checksumEnd; addr++ {
		sum = sum - image[addr] - 1
	}
	return sum
}

// Validate checks that image is a loadable cartridge: non-empty, at least one
// ROM bank long, with a matching header checksum, known size codes, and a
// length equal to the ROM bank count times the bank size.
func Validate(image []byte) (*Header, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", dmgerr.ErrInvalid)
	}
	if len(image) < ROMBankSize {
		return nil, fmt.Errorf("%w: image of %d bytes is shorter than one ROM bank", dmgerr.ErrInvalid, len(image))
	}
	if got, want := HeaderChecksum(image), image[headerChecksumAddr]; got != want {
		return nil, fmt.Errorf("%w: header checksum %02X, header says %02X", dmgerr.ErrInvalid, got, want)
	}
	h, err := ParseHeader(image)
	if err != nil {
		return nil, err
	}
	if want := ROMBankSize * h.ROMBanks; len(image) != want {
		return nil, fmt.Errorf("%w: image is %d bytes, ROM size code %02X needs %d",
			dmgerr.ErrInvalid, len(image), h.ROMSizeCode, want)
	}
	return h, nil
}

func romBankCount(code byte) (int, error) {
	switch {
	case code <= 0x08:
		return 2 << code, nil
	case code >= 0x52 && code <= 0x54:
		return 0, fmt.Errorf("%w: ROM size code %02X", dmgerr.ErrUnsupported, code)
	default:
		return 0, fmt.Errorf("%w: ROM size code %02X", dmgerr.ErrInvalid, code)
	}
}

func ramBankCount(code byte) (int, error) {
	switch code {
	case 0x00:
		return 0, nil
	case 0x01, 0x02: // 2 KiB parts still occupy a full bank
		return 1, nil
	case 0x03:
		return 4, nil
	case 0x04:
		return 16, nil
	case 0x05:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: RAM size code %02X", dmgerr.ErrInvalid, code)
	}
}
