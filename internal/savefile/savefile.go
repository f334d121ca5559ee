// Package savefile frames exported machine state for storage.
//
// A save file is a 13-byte little-endian header, the payload, and a
// trailing 16-bit checksum:
//
//	magic     u32  "DMG1"
//	version   u8
//	timestamp u32  seconds since the Unix epoch
//	length    u32  payload length
//	payload   [length]byte
//	checksum  u16  sum of every preceding byte, mod 2^16
package savefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
)

const (
	Magic   uint32 = 0x31474D44 // "DMG1" on disk
	Version uint8  = 1

	HeaderSize   = 13
	checksumSize = 2

	// MaxPayload bounds the length field so a corrupt header cannot request
	// an arbitrary allocation.
	MaxPayload = 1 << 20
)

type Header struct {
	Magic     uint32
	Version   uint8
	Timestamp uint32
	Length    uint32
}

// Checksum is the 16-bit wrapping sum of data.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// Encode writes payload framed with a header stamped with timestamp.
func Encode(w io.Writer, timestamp uint32, payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", dmgerr.ErrInvalid, len(payload), MaxPayload)
	}
	h := Header{Magic: Magic, Version: Version, Timestamp: timestamp, Length: uint32(len(payload))}

	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(payload) + checksumSize)
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return err
	}
	buf.Write(payload)
	sum := Checksum(buf.Bytes())
	if err := binary.Write(&buf, binary.LittleEndian, sum); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads one save file from r and returns its header and payload.
// Any mismatch in magic, version, length or checksum is ErrInvalid.
func Decode(r io.Reader) (Header, []byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, HeaderSize+MaxPayload+checksumSize+1))
	if err != nil {
		return Header{}, nil, err
	}
	return Parse(data)
}

// Parse is Decode over a complete file image.
func Parse(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < HeaderSize+checksumSize {
		return h, nil, fmt.Errorf("%w: save file of %d bytes is too short", dmgerr.ErrInvalid, len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, nil, fmt.Errorf("%w: save header: %v", dmgerr.ErrInvalid, err)
	}
	if h.Magic != Magic {
		return h, nil, fmt.Errorf("%w: save magic %08X, want %08X", dmgerr.ErrInvalid, h.Magic, Magic)
	}
	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: save version %d, want %d", dmgerr.ErrInvalid, h.Version, Version)
	}
	if want := HeaderSize + int(h.Length) + checksumSize; h.Length > MaxPayload || len(data) != want {
		return h, nil, fmt.Errorf("%w: save length field %d does not match file size %d",
			dmgerr.ErrInvalid, h.Length, len(data))
	}

	end := HeaderSize + int(h.Length)
	got := Checksum(data[:end])
	want := binary.LittleEndian.Uint16(data[end:])
	if got != want {
		return h, nil, fmt.Errorf("%w: save checksum %04X, file says %04X", dmgerr.ErrInvalid, got, want)
	}
	payload := make([]byte, h.Length)
	copy(payload, data[HeaderSize:end])
	return h, payload, nil
}
