// Package pipeline drives the out-of-order core one cycle at a time:
// writeback, retire, execute, dispatch, and issue/rename, in that
// fixed order, over the RAT, ROB, scheduler, and functional units.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/oosim/config"
	"github.com/sarchlab/oosim/execunit"
	"github.com/sarchlab/oosim/insts"
	"github.com/sarchlab/oosim/rat"
	"github.com/sarchlab/oosim/rob"
	"github.com/sarchlab/oosim/sched"
)

// ErrUnsupportedInstruction is returned by Tick when the instruction
// source yields an instruction outside the core's supported subset
// (Op and OpImm). This is fatal: the caller should stop the run.
var ErrUnsupportedInstruction = errors.New("pipeline: unsupported instruction reached the core")

// Stats accumulates simulation-wide counters.
type Stats struct {
	CyclesRun           uint64
	InstructionsIssued  uint64
	InstructionsRetired uint64
	IssueStalls         uint64
}

// Pipeline is the out-of-order core: a RAT, a ROB, a scheduler, and
// three functional units, sequenced by Tick.
type Pipeline struct {
	rat     *rat.RAT
	rob     *rob.ROB
	sched   *sched.Scheduler
	addsub  *execunit.AddSubUnit
	logical *execunit.LogicalUnit
	compare *execunit.ComparatorUnit

	source insts.Source
	pc     uint32

	pendingFetch *insts.Instruction

	stats Stats
	err   error
}

// PipelineOption configures a Pipeline at construction time.
type PipelineOption func(*Pipeline)

// WithSource overrides the instruction source. Default: a
// config-seeded insts.RandomSource.
func WithSource(s insts.Source) PipelineOption {
	return func(p *Pipeline) { p.source = s }
}

// WithStartPC sets the speculative program counter assigned to the
// first fetched instruction. Default: 0.
func WithStartPC(pc uint32) PipelineOption {
	return func(p *Pipeline) { p.pc = pc }
}

// New builds a Pipeline from cfg, applying opts after the structural
// components (RAT, ROB, scheduler, functional units) are constructed.
func New(cfg *config.Config, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		rat:     rat.New(cfg.ArchRegisterCount, cfg.InitialRegisterValues),
		rob:     rob.New(cfg.ROBCapacity),
		sched:   sched.New(cfg.ReservationStationCount),
		addsub:  execunit.NewAddSubUnit(),
		logical: execunit.NewLogicalUnit(),
		compare: execunit.NewComparatorUnit(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.source == nil {
		p.source = insts.NewRandomSource(cfg.Seed(), uint32(cfg.ArchRegisterCount))
	}
	return p
}

// Stats returns a snapshot of the simulation's running counters.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Err returns the error that halted the simulation, if any. Once set
// it is sticky: further Tick calls are no-ops that keep returning it.
func (p *Pipeline) Err() error {
	return p.err
}

// RAT exposes the register alias table for inspection.
func (p *Pipeline) RAT() *rat.RAT { return p.rat }

// ROB exposes the reorder buffer for inspection.
func (p *Pipeline) ROB() *rob.ROB { return p.rob }

// Scheduler exposes the reservation stations for inspection.
func (p *Pipeline) Scheduler() *sched.Scheduler { return p.sched }

func (p *Pipeline) unitFor(family execunit.Family) execunit.ExecutionUnit {
	switch family {
	case execunit.FamilyAddSub:
		return p.addsub
	case execunit.FamilyLogical:
		return p.logical
	case execunit.FamilyCompare:
		return p.compare
	default:
		panic(fmt.Sprintf("pipeline: unknown functional unit family %v", family))
	}
}

func (p *Pipeline) units() []execunit.ExecutionUnit {
	return []execunit.ExecutionUnit{p.addsub, p.logical, p.compare}
}

// Tick advances the core by exactly one cycle: writeback, retire,
// execute, dispatch, then issue/rename. Once a fatal error occurs
// (ErrUnsupportedInstruction or a rob invariant violation), Tick
// stops advancing and keeps returning that error, wrapped with the
// index of the cycle it occurred in.
func (p *Pipeline) Tick() error {
	if p.err != nil {
		return p.err
	}

	if err := p.doWriteback(); err != nil {
		p.err = fmt.Errorf("cycle %d: %w", p.stats.CyclesRun, err)
		return p.err
	}
	p.doRetire()
	p.doExecute()
	p.doDispatch()
	if err := p.doIssue(); err != nil {
		p.err = fmt.Errorf("cycle %d: issue: %w", p.stats.CyclesRun, err)
		return p.err
	}

	p.stats.CyclesRun++
	return nil
}

func (p *Pipeline) doWriteback() error {
	for _, u := range p.units() {
		c, ok := u.Complete()
		if !ok {
			continue
		}
		if err := p.rob.Writeback(c.RobSlot, c.Result); err != nil {
			return fmt.Errorf("pipeline: writeback: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) doRetire() {
	entry, slot, err := p.rob.Retire()
	if err != nil {
		// rob.ErrEmpty and rob.ErrNotComplete are not errors at the
		// pipeline level: there is simply nothing to retire this cycle.
		return
	}
	if entry.Dest.Kind == rob.LocRegister {
		p.rat.Commit(entry.Dest.Reg, slot, *entry.Result)
	}
	p.stats.InstructionsRetired++
}

func (p *Pipeline) doExecute() {
	for _, u := range p.units() {
		u.Execute()
	}
}

func (p *Pipeline) doDispatch() {
	for _, ready := range p.sched.ReadyOps(p.rat, p.rob) {
		unit := p.unitFor(ready.Dispatch.Op.Family)
		if unit.IsBusy() {
			// Corrected rule: a dispatched op whose target unit is busy
			// stays reserved for retry next cycle, rather than being
			// dropped.
			continue
		}
		unit.Prepare(ready.Dispatch)
		p.sched.Free(ready.Slot)
	}
}

func (p *Pipeline) doIssue() error {
	if p.pendingFetch == nil {
		p.pendingFetch = p.source.Next()
	}
	if p.pendingFetch == nil {
		return nil // source exhausted
	}
	inst := *p.pendingFetch

	if !inst.CoreSupported() {
		return fmt.Errorf("pipeline: %w: %v", ErrUnsupportedInstruction, inst)
	}

	// Two-phase admission: both the ROB and the scheduler must have
	// room before either is touched, so a reservation never outlives
	// an allocation (or vice versa).
	if p.rob.IsFull() || p.sched.IsFull() {
		p.stats.IssueStalls++
		return nil
	}

	dest := rob.NoLoc()
	if inst.WritesRd() {
		dest = rob.RegisterLoc(inst.Rd)
	}

	slot, err := p.rob.Allocate(p.pc, dest)
	if err != nil {
		// Unreachable: IsFull was already checked above.
		return fmt.Errorf("pipeline: issue: %w", err)
	}

	uop, err := inst.ALUOp.ToUop()
	if err != nil {
		return fmt.Errorf("pipeline: issue: %w", err)
	}

	var op1, op2 sched.Operand
	if inst.ReadsRs1() {
		op1 = sched.RegOperand(inst.Rs1)
	}
	switch {
	case inst.ReadsRs2():
		op2 = sched.RegOperand(inst.Rs2)
	case inst.Kind == insts.KindOpImm:
		op2 = sched.ImmOperand(inst.Imm)
	}

	if _, err := p.sched.Reserve(sched.Entry{
		Op:      uop,
		Dest:    dest,
		RobSlot: slot,
		Op1:     op1,
		Op2:     op2,
	}); err != nil {
		// Unreachable: IsFull was already checked above.
		return fmt.Errorf("pipeline: issue: %w", err)
	}

	if dest.Kind == rob.LocRegister {
		p.rat.Rename(dest.Reg, slot)
	}

	p.stats.InstructionsIssued++
	p.pc += 4
	p.pendingFetch = nil
	return nil
}

// Run advances the pipeline until the instruction source is
// exhausted and every in-flight instruction has drained, or until a
// fatal error occurs.
func (p *Pipeline) Run() error {
	for {
		if err := p.Tick(); err != nil {
			return err
		}
		if p.pendingFetch != nil {
			continue
		}
		if !p.rob.IsEmpty() || p.sched.FreeCount() != p.sched.Capacity() {
			continue
		}
		next := p.source.Next()
		if next == nil {
			return nil
		}
		p.pendingFetch = next
	}
}

// RunCycles advances the pipeline by exactly n cycles, stopping early
// if a fatal error occurs.
func (p *Pipeline) RunCycles(n uint64) error {
	for i := uint64(0); i < n; i++ {
		if err := p.Tick(); err != nil {
			return err
		}
	}
	return nil
}
