// Package main provides the entry point for oosim, a cycle-level
// behavioral model of an out-of-order superscalar integer core.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/oosim/config"
	"github.com/sarchlab/oosim/insts"
	"github.com/sarchlab/oosim/prim"
	"github.com/sarchlab/oosim/timing/core"
	"github.com/sarchlab/oosim/timing/pipeline"
)

var (
	configPath = flag.String("config", "", "Path to a core configuration JSON file")
	cycles     = flag.Uint64("cycles", 0, "Number of cycles to simulate (0 uses the config's simulated_cycles)")
	seed       = flag.Int64("seed", 0, "Seed for the random instruction stream (0 keeps the config's rng_seed, which derives a seed from the clock when zero)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *seed != 0 {
		cfg.RNGSeed = *seed
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	cfg.RNGSeed = cfg.Seed()

	if *verbose {
		fmt.Printf("Registers: %d, ROB: %d, reservation stations: %d, seed: %d\n",
			cfg.ArchRegisterCount, cfg.ROBCapacity, cfg.ReservationStationCount, cfg.Seed())
	}

	// A RandomSource never exhausts, so the run length is always
	// cycle-bounded here: either the -cycles flag or the config's
	// simulated_cycles, never Core.Run's drain-to-exhaustion.
	n := *cycles
	if n == 0 {
		n = uint64(cfg.SimulatedCycles)
	}

	src := insts.NewRandomSource(cfg.Seed(), uint32(cfg.ArchRegisterCount))
	c := core.NewCore(cfg, pipeline.WithSource(src))

	if err := c.RunCycles(n); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stats := c.Stats()
	fmt.Printf("Cycles: %d\n", stats.Cycles)
	fmt.Printf("Instructions issued: %d\n", stats.Issued)
	fmt.Printf("Instructions retired: %d\n", stats.Retired)
	fmt.Printf("Issue stalls: %d\n", stats.IssueStalls)

	if *verbose {
		fmt.Println("Final register state:")
		for r := 0; r < cfg.ArchRegisterCount; r++ {
			fmt.Printf("  r%-2d = 0x%08x\n", r, c.RAT().Read(prim.ArchReg(r)).Value)
		}
	}
}
