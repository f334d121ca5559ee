package emu

import (
	"log"
	"time"
)

// DefaultClockRate is the DMG master clock in ticks per second.
const DefaultClockRate = 4194304

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace     bool             // log CPU instructions
	Logger    *log.Logger      // trace destination
	ClockRate int              // ticks per emulated second, paces the cartridge clock
	Now       func() time.Time // save file timestamps
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.ClockRate <= 0 {
		c.ClockRate = DefaultClockRate
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
