// Package sched implements the out-of-order scheduler: a fixed pool
// of reservation stations that hold issued-but-not-yet-dispatched
// operations until both their operands are available.
package sched

import (
	"errors"
	"fmt"

	"github.com/sarchlab/oosim/execunit"
	"github.com/sarchlab/oosim/prim"
	"github.com/sarchlab/oosim/rat"
	"github.com/sarchlab/oosim/rob"
)

// ErrNoSlot is returned by Reserve when every reservation station is occupied.
var ErrNoSlot = errors.New("sched: no free reservation slot")

// OperandKind distinguishes an immediate operand from a register operand.
type OperandKind uint8

const (
	OperandImm OperandKind = iota
	OperandReg
)

// Operand is a reservation-station source operand: either an
// immediate, always ready, or an architectural register that must be
// resolved against the RAT and, if renamed, the reorder buffer.
type Operand struct {
	Kind OperandKind
	Imm  int32
	Reg  prim.ArchReg
}

// ImmOperand builds an always-ready immediate operand.
func ImmOperand(v int32) Operand { return Operand{Kind: OperandImm, Imm: v} }

// RegOperand builds a register operand that resolves through the RAT.
func RegOperand(r prim.ArchReg) Operand { return Operand{Kind: OperandReg, Reg: r} }

// Resolve returns the operand's value. An immediate always resolves;
// a register operand's second return is false until its producing
// instruction writes back.
func (o Operand) Resolve(t *rat.RAT, buf *rob.ROB) (uint32, bool) {
	if o.Kind == OperandImm {
		return uint32(o.Imm), true
	}
	return t.Resolve(o.Reg, buf)
}

// Entry is a single reservation-station occupant: an issued
// operation waiting on its two source operands.
type Entry struct {
	Op      execunit.Op
	Dest    rob.StorageLoc
	RobSlot int
	Op1     Operand
	Op2     Operand
	Age     int
}

// ReadyOp is an Entry whose operands have both resolved, still
// sitting in its reservation slot, ready to be routed to a functional
// unit. The slot is not freed until the caller confirms the routing
// succeeded by calling Scheduler.Free.
type ReadyOp struct {
	Slot     int
	Dispatch execunit.Dispatched
}

// Scheduler is a fixed-size pool of reservation stations.
type Scheduler struct {
	slots []*Entry
}

// New creates a scheduler with k reservation stations.
func New(k int) *Scheduler {
	if k <= 0 {
		panic("sched: scheduler must have at least one reservation slot")
	}
	return &Scheduler{slots: make([]*Entry, k)}
}

// Capacity returns the fixed number of reservation stations.
func (s *Scheduler) Capacity() int {
	return len(s.slots)
}

// IsFull reports whether every reservation station is occupied.
func (s *Scheduler) IsFull() bool {
	return s.FreeCount() == 0
}

// FreeCount returns the number of unoccupied reservation stations.
func (s *Scheduler) FreeCount() int {
	n := 0
	for _, e := range s.slots {
		if e == nil {
			n++
		}
	}
	return n
}

// Reserve places e in the lowest-indexed free reservation station,
// returning its index. Returns ErrNoSlot if every station is occupied.
func (s *Scheduler) Reserve(e Entry) (int, error) {
	for i, occupant := range s.slots {
		if occupant == nil {
			v := e
			s.slots[i] = &v
			return i, nil
		}
	}
	return 0, fmt.Errorf("sched: reserve: %w", ErrNoSlot)
}

// ReadyOps scans every occupied reservation station and returns the
// ones whose operands both resolve, in slot order. Entries that do
// not yet resolve have their Age incremented and remain reserved.
// ReadyOps does not free any slot; the caller must call Free once it
// has confirmed an op was actually handed to a functional unit. This
// keeps an op whose target unit is busy from being dropped on the
// floor instead of simply waiting another cycle.
func (s *Scheduler) ReadyOps(t *rat.RAT, buf *rob.ROB) []ReadyOp {
	var ready []ReadyOp
	for i, e := range s.slots {
		if e == nil {
			continue
		}
		x, xok := e.Op1.Resolve(t, buf)
		y, yok := e.Op2.Resolve(t, buf)
		if !xok || !yok {
			e.Age++
			continue
		}
		ready = append(ready, ReadyOp{
			Slot: i,
			Dispatch: execunit.Dispatched{
				RobSlot: e.RobSlot,
				Dest:    e.Dest,
				Op:      e.Op,
				X:       x,
				Y:       y,
			},
		})
	}
	return ready
}

// Free releases the reservation station at slot, making it available
// to Reserve again. The caller must only free a slot once the op it
// held has actually been routed to a functional unit.
func (s *Scheduler) Free(slot int) {
	if slot < 0 || slot >= len(s.slots) {
		panic("sched: free: slot out of range")
	}
	s.slots[slot] = nil
}

// Occupied reports whether slot currently holds a reservation, for
// diagnostics and tests.
func (s *Scheduler) Occupied(slot int) bool {
	if slot < 0 || slot >= len(s.slots) {
		panic("sched: occupied: slot out of range")
	}
	return s.slots[slot] != nil
}

// Status is a point-in-time snapshot of the scheduler's occupancy,
// for diagnostics and tests.
type Status struct {
	Capacity  int
	Occupied  int
	OldestAge int // Age of the longest-waiting occupied slot; 0 if empty
}

// Status reports the scheduler's current occupancy.
func (s *Scheduler) Status() Status {
	st := Status{Capacity: len(s.slots)}
	for _, e := range s.slots {
		if e == nil {
			continue
		}
		st.Occupied++
		if e.Age > st.OldestAge {
			st.OldestAge = e.Age
		}
	}
	return st
}

func (st Status) String() string {
	return fmt.Sprintf("sched: %d/%d occupied, oldest age=%d", st.Occupied, st.Capacity, st.OldestAge)
}
