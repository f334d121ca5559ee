// Package serial is a raw byte hook on the link port registers. It does not
// model a link partner: each transfer sends SB to a writer and shifts in
// 0xFF, as if nothing were plugged in.
package serial

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/interrupt"
)

const (
	DataAddr    uint16 = 0xFF01 // SB
	ControlAddr uint16 = 0xFF02 // SC

	// TransferTicks is one 8-bit transfer on the internal 8192 Hz clock.
	TransferTicks = 8 * 512

	controlStart    = 0x80
	controlInternal = 0x01
)

type Port struct {
	irq interrupt.Requester
	out io.Writer

	data    byte
	control byte
	// ticks until the running transfer completes; 0 when idle
	remaining int
}

// New returns a port that raises the serial interrupt on irq. out may be nil.
func New(irq interrupt.Requester, out io.Writer) *Port {
	return &Port{irq: irq, out: out}
}

// SetWriter replaces the output sink.
func (p *Port) SetWriter(w io.Writer) { p.out = w }

func (p *Port) Busy() bool { return p.remaining > 0 }

func (p *Port) Read(addr uint16) byte {
	switch addr {
	case DataAddr:
		return p.data
	case ControlAddr:
		return p.control | 0x7E
	}
	return 0xFF
}

func (p *Port) Write(addr uint16, value byte) {
	switch addr {
	case DataAddr:
		if !p.Busy() {
			p.data = value
		}
	case ControlAddr:
		p.control = value & (controlStart | controlInternal)
		if value&controlStart == 0 {
			p.remaining = 0
			return
		}
		// An external clock never ticks without a partner.
		if value&controlInternal != 0 && !p.Busy() {
			p.start()
		}
	}
}

func (p *Port) start() {
	if p.out != nil {
		_, _ = p.out.Write([]byte{p.data})
	}
	p.remaining = TransferTicks
}

// Clock advances a running transfer by one tick.
func (p *Port) Clock() {
	if p.remaining == 0 {
		return
	}
	p.remaining--
	if p.remaining == 0 {
		p.data = 0xFF
		p.control &^= controlStart
		p.irq.Raise(interrupt.Serial)
	}
}
