// Command dmgrun runs a cartridge headless for a fixed number of ticks,
// streaming serial output to stdout. It is meant for test ROMs and for
// checking battery and state files.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/serial"
)

type CLIFlags struct {
	ROMPath   string
	BootROM   string
	Cycles    int
	Trace     bool
	SaveRAM   bool   // persist battery RAM next to ROM (.sav)
	StatePath string // save file to import before and export after the run
	Auto      bool   // stop on "Passed" / "Failed N tests" in serial output
	Timeout   time.Duration

	StatsView string // address for the runtime stats server
	MemViz    string // write a graphviz dump of the machine here on exit
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.BootROM, "bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	flag.IntVar(&f.Cycles, "cycles", 60*emu.DefaultClockRate, "max ticks to run")
	flag.BoolVar(&f.Trace, "trace", false, "log every instruction")
	flag.BoolVar(&f.SaveRAM, "save", false, "load ROM.sav on start and write it on exit")
	flag.StringVar(&f.StatePath, "state", "", "save file to import on start (if present) and export on exit")
	flag.BoolVar(&f.Auto, "auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1")
	flag.DurationVar(&f.Timeout, "timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	flag.StringVar(&f.StatsView, "statsview", "", "serve runtime statistics on this address (e.g. localhost:12600)")
	flag.StringVar(&f.MemViz, "memviz", "", "write a graphviz dump of the machine to this path on exit")
	flag.Parse()
	return f
}

// verdict scans serial output for a test ROM result.
type verdict struct {
	buf    bytes.Buffer
	failRe *regexp.Regexp
}

func newVerdict() *verdict {
	return &verdict{failRe: regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)}
}

func (v *verdict) Write(p []byte) (int, error) { return v.buf.Write(p) }

// result returns 0 on pass, 1 on failure and -1 while undecided.
func (v *verdict) result() (int, string) {
	s := v.buf.String()
	if strings.Contains(strings.ToLower(s), "passed") {
		return 0, "PASS"
	}
	if m := v.failRe.FindString(s); m != "" {
		return 1, m
	}
	return -1, ""
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(f.ROMPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var boot []byte
	if f.BootROM != "" {
		if boot, err = os.ReadFile(f.BootROM); err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
	}
	if f.StatsView != "" {
		launchStatsView(f.StatsView)
	}

	m := emu.New(emu.Config{Trace: f.Trace})
	v := newVerdict()
	m.Attach(bus.Devices{Serial: serial.New(m, io.MultiWriter(os.Stdout, v))})
	if err := m.Load(rom, boot); err != nil {
		log.Fatalf("load rom: %v", err)
	}
	h := m.Header()
	log.Printf("loaded %s: title=%q type=%02X rom_banks=%d ram_banks=%d", f.ROMPath, h.Title, h.Mapper, h.ROMBanks, h.RAMBanks)

	savPath := strings.TrimSuffix(f.ROMPath, ".gb") + ".sav"
	if f.SaveRAM {
		if data, err := os.ReadFile(savPath); err == nil {
			if err := m.LoadBattery(data); err != nil {
				log.Printf("ignoring %s: %v", savPath, err)
			} else {
				log.Printf("loaded save RAM: %s (%d bytes)", savPath, len(data))
			}
		}
	}
	if f.StatePath != "" {
		if err := m.ImportFile(f.StatePath); err == nil {
			log.Printf("imported %s", f.StatePath)
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("import state: %v", err)
		}
	}

	code := run(m, f, v)

	if f.SaveRAM {
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(savPath, data, 0644); err != nil {
				log.Printf("write %s: %v", savPath, err)
			} else {
				log.Printf("wrote %s", savPath)
			}
		}
	}
	if f.StatePath != "" {
		if err := m.ExportFile(f.StatePath); err != nil {
			log.Printf("export state: %v", err)
		} else {
			log.Printf("wrote %s", f.StatePath)
		}
	}
	if f.MemViz != "" {
		if err := writeMemViz(f.MemViz, m); err != nil {
			log.Printf("memviz: %v", err)
		}
	}
	os.Exit(code)
}

// run clocks the machine in slices so the serial verdict and the timeout
// are checked without slowing the inner loop.
func run(m *emu.Machine, f CLIFlags, v *verdict) int {
	const slice = emu.DefaultClockRate / 60

	start := time.Now()
	var deadline time.Time
	if f.Timeout > 0 {
		deadline = start.Add(f.Timeout)
	}
	done := func(reason string) {
		fmt.Printf("\n%s\nDone: cycles=%d elapsed=%s\n", reason, m.Cycles(), time.Since(start).Truncate(time.Millisecond))
	}

	for left := f.Cycles; left > 0; left -= slice {
		n := slice
		if left < n {
			n = left
		}
		if err := m.RunCycles(n); err != nil {
			var fault *cpu.Fault
			if errors.As(err, &fault) {
				r := m.Registers()
				log.Printf("fault: %v SP=%04X A=%02X F=%02X", err, r.SP, r.A, r.F())
			}
			done("Stopped: " + err.Error())
			return 3
		}
		if f.Auto {
			if code, msg := v.result(); code >= 0 {
				done("Detected " + msg + " in serial output.")
				return code
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			done(fmt.Sprintf("Timeout after %s.", time.Since(start).Truncate(time.Millisecond)))
			return 2
		}
	}
	done("Cycle budget exhausted.")
	return 0
}
