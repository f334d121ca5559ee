package savefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
	"github.com/retroenv/retrogolib/assert"
)

func encode(t *testing.T, timestamp uint32, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, timestamp, payload))
	return buf.Bytes()
}

func TestEncode_Layout(t *testing.T) {
	data := encode(t, 0x01020304, []byte{0xAA, 0xBB})

	assert.Equal(t, HeaderSize+2+2, len(data))
	assert.Equal(t, []byte("DMG1"), data[0:4])
	assert.Equal(t, Version, data[4])
	assert.Equal(t, uint32(0x01020304), binary.LittleEndian.Uint32(data[5:9]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[9:13]))
	assert.Equal(t, []byte{0xAA, 0xBB}, data[13:15])
	assert.Equal(t, Checksum(data[:15]), binary.LittleEndian.Uint16(data[15:]))
}

func TestDecode_RoundTrip(t *testing.T) {
	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	data := encode(t, 1700000000, payload)

	h, got, err := Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, Magic, h.Magic)
	assert.Equal(t, Version, h.Version)
	assert.Equal(t, uint32(1700000000), h.Timestamp)
	assert.Equal(t, uint32(len(payload)), h.Length)
	assert.Equal(t, payload, got)
}

func TestDecode_EmptyPayload(t *testing.T) {
	_, got, err := Decode(bytes.NewReader(encode(t, 0, nil)))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(got))
}

func TestChecksum_Wraps(t *testing.T) {
	data := bytes.Repeat([]byte{0xFF}, 300)
	assert.Equal(t, uint16(300*0xFF%0x10000), Checksum(data))
}

func TestDecode_AnySingleByteCorruption(t *testing.T) {
	good := encode(t, 42, []byte("battery"))
	for i := range good {
		bad := append([]byte(nil), good...)
		bad[i] ^= 0x01
		_, _, err := Decode(bytes.NewReader(bad))
		if !errors.Is(err, dmgerr.ErrInvalid) {
			t.Fatalf("corrupt byte %d: got %v want ErrInvalid", i, err)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	good := encode(t, 42, []byte{1, 2, 3, 4})

	tests := []struct {
		name string
		data func() []byte
	}{
		{"empty", func() []byte { return nil }},
		{"header only", func() []byte { return good[:HeaderSize] }},
		{"truncated payload", func() []byte { return good[:len(good)-3] }},
		{"trailing byte", func() []byte { return append(append([]byte(nil), good...), 0) }},
		{"wrong magic", func() []byte {
			b := append([]byte(nil), good...)
			copy(b, "DMG2")
			return b
		}},
		{"wrong version", func() []byte {
			b := append([]byte(nil), good...)
			b[4] = Version + 1
			return b
		}},
		{"huge length", func() []byte {
			b := append([]byte(nil), good...)
			binary.LittleEndian.PutUint32(b[9:], 0xFFFFFFFF)
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(bytes.NewReader(tt.data()))
			assert.True(t, errors.Is(err, dmgerr.ErrInvalid))
		})
	}
}
