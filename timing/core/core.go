// Package core provides the cycle-level out-of-order CPU core model.
// It wraps the pipeline implementation to provide a high-level
// interface: a thin wrapper struct exposing Stats/Tick/Run/RunCycles
// over an internal pipeline type.
package core

import (
	"github.com/sarchlab/oosim/config"
	"github.com/sarchlab/oosim/rat"
	"github.com/sarchlab/oosim/rob"
	"github.com/sarchlab/oosim/sched"
	"github.com/sarchlab/oosim/timing/pipeline"
)

// Stats mirrors pipeline.Stats at the core's public boundary, so
// callers depend on the core package rather than reaching into
// timing/pipeline directly.
type Stats struct {
	Cycles      uint64
	Issued      uint64
	Retired     uint64
	IssueStalls uint64
}

// Core is the out-of-order integer core: a pipeline driver plus the
// configuration it was built from.
type Core struct {
	Pipeline *pipeline.Pipeline
	cfg      *config.Config
	opts     []pipeline.PipelineOption
}

// NewCore builds a Core from cfg. Any PipelineOption passed here
// (e.g. pipeline.WithSource, pipeline.WithStartPC) is reapplied by
// Reset, so a reset core keeps whatever source or start PC it was
// given.
func NewCore(cfg *config.Config, opts ...pipeline.PipelineOption) *Core {
	return &Core{
		Pipeline: pipeline.New(cfg, opts...),
		cfg:      cfg,
		opts:     opts,
	}
}

// Tick advances the core by one cycle. The returned error is fatal:
// once non-nil, every subsequent Tick keeps returning it.
func (c *Core) Tick() error {
	return c.Pipeline.Tick()
}

// Err returns the error that halted the core, if any.
func (c *Core) Err() error {
	return c.Pipeline.Err()
}

// Stats returns a snapshot of the core's running counters.
func (c *Core) Stats() Stats {
	s := c.Pipeline.Stats()
	return Stats{
		Cycles:      s.CyclesRun,
		Issued:      s.InstructionsIssued,
		Retired:     s.InstructionsRetired,
		IssueStalls: s.IssueStalls,
	}
}

// Run advances the core until its instruction source is exhausted
// and every in-flight instruction has drained, or until a fatal
// error occurs.
func (c *Core) Run() error {
	return c.Pipeline.Run()
}

// RunCycles advances the core by exactly n cycles, stopping early on
// a fatal error.
func (c *Core) RunCycles(n uint64) error {
	return c.Pipeline.RunCycles(n)
}

// RAT exposes the register alias table for inspection.
func (c *Core) RAT() *rat.RAT { return c.Pipeline.RAT() }

// ROB exposes the reorder buffer for inspection.
func (c *Core) ROB() *rob.ROB { return c.Pipeline.ROB() }

// Scheduler exposes the reservation stations for inspection.
func (c *Core) Scheduler() *sched.Scheduler { return c.Pipeline.Scheduler() }

// Reset rebuilds the core from its original configuration and
// options, discarding all architectural and microarchitectural
// state. Stats and any fatal error are cleared along with it.
func (c *Core) Reset() {
	c.Pipeline = pipeline.New(c.cfg, c.opts...)
}
