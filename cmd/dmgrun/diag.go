package main

import (
	"log"
	"os"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
)

const statsURL = "/debug/statsview"

// launchStatsView serves heap and goroutine charts on addr in the
// background.
func launchStatsView(addr string) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()
	log.Printf("stats server available at %s%s", addr, statsURL)
}

// writeMemViz dumps the machine's object graph as graphviz dot.
func writeMemViz(path string, m *emu.Machine) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	memviz.Map(f, m)
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}
