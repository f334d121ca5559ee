package emu

import (
	"bytes"
	"errors"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dmgerr"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupt"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/savefile"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/serial"
	"github.com/retroenv/retrogolib/assert"
)

// buildROM returns a valid image titled title with program placed at the
// 0x0100 entry point. Banks after the first are stamped with their number.
func buildROM(title string, mapper, romCode, ramCode byte, program ...byte) []byte {
	rom := make([]byte, cart.ROMBankSize*(2<<romCode))
	for bank := 1; bank < len(rom)/cart.ROMBankSize; bank++ {
		rom[bank*cart.ROMBankSize] = byte(bank)
	}
	copy(rom[0x0100:], program)
	copy(rom[0x0134:], title)
	rom[0x0147] = mapper
	rom[0x0148] = romCode
	rom[0x0149] = ramCode
	rom[0x014D] = cart.HeaderChecksum(rom)
	return rom
}

func newMachine(t *testing.T, rom []byte) *Machine {
	t.Helper()
	m := New(Config{Now: func() time.Time { return time.Unix(1700000000, 0) }})
	assert.NoError(t, m.Load(rom, nil))
	return m
}

func step(t *testing.T, m *Machine) int {
	t.Helper()
	n, err := m.Step()
	assert.NoError(t, err)
	return n
}

func TestMachine_Unloaded(t *testing.T) {
	m := New(Config{})
	assert.False(t, m.Loaded())
	assert.Equal(t, byte(0xFF), m.Read(0x0100))
	assert.Equal(t, byte(0xFF), m.Read(0xC000))
	m.Write(0xC000, 0x12)
	m.RaiseInterrupt(interrupt.VBlank)

	assert.True(t, errors.Is(m.Clock(), dmgerr.ErrInvalid))
	assert.True(t, errors.Is(m.Export(&bytes.Buffer{}), dmgerr.ErrInvalid))
	_, ok := m.SaveBattery()
	assert.False(t, ok)
}

func TestMachine_LoadKeepsPriorStateOnError(t *testing.T) {
	m := newMachine(t, buildROM("FIRST", 0x00, 0x00, 0x00))
	m.Write(0xC000, 0x5A)

	bad := buildROM("SECOND", 0x00, 0x00, 0x00)
	bad[0x014D]++
	assert.True(t, errors.Is(m.Load(bad, nil), dmgerr.ErrInvalid))

	unsupported := buildROM("THIRD", 0xFE, 0x00, 0x00)
	assert.True(t, errors.Is(m.Load(unsupported, nil), dmgerr.ErrUnsupported))

	assert.Equal(t, "FIRST", m.Header().Title)
	assert.Equal(t, byte(0x5A), m.Read(0xC000))
}

func TestMachine_BootROM(t *testing.T) {
	m := New(Config{})
	rom := buildROM("BOOT", 0x00, 0x00, 0x00)

	assert.True(t, errors.Is(m.Load(rom, make([]byte, 0x80)), dmgerr.ErrInvalid))
	assert.False(t, m.Loaded())

	boot := make([]byte, BootROMSize)
	boot[0] = 0x31 // LD SP,d16
	assert.NoError(t, m.Load(rom, boot))
	assert.Equal(t, uint16(0x0000), m.Registers().PC)
	assert.Equal(t, byte(0x31), m.Read(0x0000))

	m.Write(0xFF50, 0x01)
	assert.Equal(t, byte(0x00), m.Read(0x0000))
}

func TestMachine_PostBootState(t *testing.T) {
	m := newMachine(t, buildROM("POST", 0x00, 0x00, 0x00))
	r := m.Registers()
	assert.Equal(t, uint16(0x0100), r.PC)
	assert.Equal(t, uint16(0xFFFE), r.SP)
	assert.Equal(t, byte(0x01), r.A)
	assert.Equal(t, byte(0xB0), r.F())
}

func TestMachine_StepAndCycles(t *testing.T) {
	// NOP; LD BC,d16; JP a16
	m := newMachine(t, buildROM("STEP", 0x00, 0x00, 0x00, 0x00, 0x01, 0x34, 0x12, 0xC3, 0x00, 0x01))

	assert.Equal(t, 4, step(t, m))
	assert.Equal(t, 12, step(t, m))
	r := m.Registers()
	assert.Equal(t, uint16(0x1234), r.BC())
	assert.Equal(t, 16, step(t, m))
	assert.Equal(t, uint16(0x0100), m.Registers().PC)
	assert.Equal(t, uint64(32), m.Cycles())

	assert.NoError(t, m.RunCycles(40))
	assert.Equal(t, uint64(72), m.Cycles())
}

func TestMachine_InvalidOpcode(t *testing.T) {
	m := newMachine(t, buildROM("FAULT", 0x00, 0x00, 0x00, 0x00, 0xD3))
	step(t, m)

	_, err := m.Step()
	assert.True(t, errors.Is(err, dmgerr.ErrFatal))
	var f *cpu.Fault
	assert.True(t, errors.As(err, &f))
	assert.Equal(t, uint16(0x0101), f.Address)
	assert.Equal(t, byte(0xD3), f.Opcode)

	// it stays on the fault
	_, err = m.Step()
	assert.True(t, errors.Is(err, dmgerr.ErrFatal))
	assert.Equal(t, uint16(0x0101), m.Registers().PC)
}

func TestMachine_RaiseInterruptWakesHalt(t *testing.T) {
	// EI; HALT
	m := newMachine(t, buildROM("IRQ", 0x00, 0x00, 0x00, 0xFB, 0x76))
	m.Write(interrupt.EnableAddr, 0x01)

	step(t, m)
	step(t, m)
	assert.Equal(t, 4, step(t, m))
	assert.Equal(t, uint16(0x0102), m.Registers().PC)

	m.RaiseInterrupt(interrupt.VBlank)
	assert.Equal(t, 20, step(t, m))
	assert.Equal(t, uint16(0x0040), m.Registers().PC)
	assert.Equal(t, byte(0x01), m.Read(0xFFFD))
	assert.Equal(t, byte(0x02), m.Read(0xFFFC))
	assert.Equal(t, byte(0xE0), m.Read(interrupt.FlagAddr))
}

func TestMachine_StopUntilInput(t *testing.T) {
	// STOP
	m := newMachine(t, buildROM("STOP", 0x00, 0x00, 0x00, 0x10, 0x00))
	step(t, m)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 4, step(t, m))
	}
	assert.Equal(t, uint16(0x0102), m.Registers().PC)

	m.RaiseInterrupt(interrupt.Input)
	step(t, m)
	assert.Equal(t, uint16(0x0103), m.Registers().PC)
}

func TestMachine_RTCTicksPerEmulatedSecond(t *testing.T) {
	m := New(Config{ClockRate: 8})
	assert.NoError(t, m.Load(buildROM("CLOCK", 0x10, 0x00, 0x03), nil))

	assert.NoError(t, m.RunCycles(7))
	rtc, ok := m.bus.Mapper().RTC()
	assert.True(t, ok)
	assert.Equal(t, byte(0), rtc.Seconds)

	assert.NoError(t, m.RunCycles(1+8*60))
	rtc, _ = m.bus.Mapper().RTC()
	assert.Equal(t, byte(1), rtc.Seconds)
	assert.Equal(t, byte(1), rtc.Minutes)
}

func TestMachine_Battery(t *testing.T) {
	m := newMachine(t, buildROM("BATT", 0x03, 0x00, 0x02))
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x42)

	data, ok := m.SaveBattery()
	assert.True(t, ok)
	assert.Equal(t, cart.RAMBankSize, len(data))
	assert.Equal(t, byte(0x42), data[0])

	other := newMachine(t, buildROM("BATT", 0x03, 0x00, 0x02))
	assert.NoError(t, other.LoadBattery(data))
	other.Write(0x0000, 0x0A)
	assert.Equal(t, byte(0x42), other.Read(0xA000))

	assert.True(t, errors.Is(other.LoadBattery(data[:10]), dmgerr.ErrInvalid))
}

func TestMachine_ExportImport(t *testing.T) {
	// LD A,0x77; LD (0xC010),A; EI; NOP
	rom := buildROM("STATE", 0x13, 0x01, 0x03, 0x3E, 0x77, 0xEA, 0x10, 0xC0, 0xFB, 0x00)
	m := newMachine(t, rom)
	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x03)
	m.Write(0x4000, 0x02)
	m.Write(0xA123, 0x99)
	m.Write(0xFF90, 0x55)
	m.Write(interrupt.EnableAddr, 0x1F)
	for i := 0; i < 3; i++ {
		step(t, m)
	}
	saved := m.Registers()

	var buf bytes.Buffer
	assert.NoError(t, m.Export(&buf))
	h, _, err := savefile.Decode(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, err)
	assert.Equal(t, uint32(1700000000), h.Timestamp)

	m.Write(0xC010, 0x00)
	m.Write(0xA123, 0x00)
	m.Write(0xFF90, 0x00)
	m.Write(0x2000, 0x01)
	m.Write(interrupt.EnableAddr, 0x00)
	step(t, m)

	assert.NoError(t, m.Import(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, saved, m.Registers())
	assert.Equal(t, byte(0x77), m.Read(0xC010))
	assert.Equal(t, byte(0x99), m.Read(0xA123))
	assert.Equal(t, byte(0x55), m.Read(0xFF90))
	assert.Equal(t, byte(0x03), m.Read(0x4000))
	assert.Equal(t, byte(0x1F), m.Read(interrupt.EnableAddr))

	// the pending EI survives: master enable comes on after the next NOP
	m.RaiseInterrupt(interrupt.Timer)
	step(t, m)
	assert.Equal(t, 20, step(t, m))
	assert.Equal(t, uint16(0x0050), m.Registers().PC)
}

func TestMachine_ImportRejects(t *testing.T) {
	m := newMachine(t, buildROM("STATE", 0x03, 0x00, 0x02))
	m.Write(0xC000, 0x11)
	var buf bytes.Buffer
	assert.NoError(t, m.Export(&buf))
	good := buf.Bytes()
	m.Write(0xC000, 0x22)

	corrupt := append([]byte(nil), good...)
	corrupt[len(corrupt)/2] ^= 0xFF
	assert.True(t, errors.Is(m.Import(bytes.NewReader(corrupt)), dmgerr.ErrInvalid))
	assert.Equal(t, byte(0x22), m.Read(0xC000))

	other := newMachine(t, buildROM("OTHER", 0x00, 0x00, 0x00))
	assert.True(t, errors.Is(other.Import(bytes.NewReader(good)), dmgerr.ErrInvalid))

	// a well-framed file with a short payload
	var short bytes.Buffer
	assert.NoError(t, savefile.Encode(&short, 0, []byte{0x00}))
	assert.True(t, errors.Is(m.Import(&short), dmgerr.ErrInvalid))
	assert.Equal(t, byte(0x22), m.Read(0xC000))
}

func TestMachine_ExportImportFile(t *testing.T) {
	m := newMachine(t, buildROM("FILE", 0x00, 0x00, 0x00))
	m.Write(0xD000, 0xAB)
	path := filepath.Join(t.TempDir(), "state.dmg")
	assert.NoError(t, m.ExportFile(path))

	m.Write(0xD000, 0x00)
	assert.NoError(t, m.ImportFile(path))
	assert.Equal(t, byte(0xAB), m.Read(0xD000))
}

func TestMachine_SerialHook(t *testing.T) {
	// LD A,'O'; LDH (01),A; LD A,0x81; LDH (02),A; JR -2
	rom := buildROM("SERIAL", 0x00, 0x00, 0x00, 0x3E, 'O', 0xE0, 0x01, 0x3E, 0x81, 0xE0, 0x02, 0x18, 0xFE)
	m := New(Config{})
	var out bytes.Buffer
	port := serial.New(m, &out)
	m.Attach(bus.Devices{Serial: port})
	assert.NoError(t, m.Load(rom, nil))

	assert.NoError(t, m.RunCycles(serial.TransferTicks+100))
	assert.Equal(t, "O", out.String())
	assert.Equal(t, byte(0xE0|1<<interrupt.Serial), m.Read(interrupt.FlagAddr))
}

func TestMachine_Trace(t *testing.T) {
	var out bytes.Buffer
	m := New(Config{Trace: true, Logger: log.New(&out, "", 0)})
	assert.NoError(t, m.Load(buildROM("TRACE", 0x00, 0x00, 0x00, 0x00, 0x04), nil))
	step(t, m)
	step(t, m)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	assert.Equal(t, 2, len(lines))
	assert.True(t, bytes.Contains(lines[0], []byte("0100")))
	assert.True(t, bytes.Contains(lines[1], []byte("INC B")))
}
