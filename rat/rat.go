// Package rat implements the register alias table: the mapping from
// architectural register names to either a committed value or the
// reorder-buffer slot that will eventually produce one.
package rat

import (
	"fmt"

	"github.com/sarchlab/oosim/prim"
	"github.com/sarchlab/oosim/rob"
)

// TagKind distinguishes a committed value from a pending rename.
type TagKind uint8

const (
	// Value means the register holds a committed, immediately readable value.
	Value TagKind = iota
	// Pending means the register has been renamed onto an in-flight
	// reorder-buffer slot; its value is not yet known.
	Pending
)

// RegValue is the tag stored per architectural register: either a
// committed Value or a Pending reference to a reorder-buffer slot.
type RegValue struct {
	Kind  TagKind
	Value uint32
	Slot  int
}

// CommittedValue builds a tag holding an immediately readable value.
func CommittedValue(v uint32) RegValue {
	return RegValue{Kind: Value, Value: v}
}

// PendingSlot builds a tag pointing at an in-flight reorder-buffer slot.
func PendingSlot(slot int) RegValue {
	return RegValue{Kind: Pending, Slot: slot}
}

func (v RegValue) String() string {
	if v.Kind == Value {
		return fmt.Sprintf("Value(%d)", v.Value)
	}
	return fmt.Sprintf("Pending(%d)", v.Slot)
}

// RAT is the register alias table for a fixed number of architectural
// registers.
type RAT struct {
	table []RegValue
}

// New creates a register alias table of size registers, initialized
// from initial (index i seeds register i; missing entries default to
// zero). Register indices are always in [0, size).
func New(size int, initial []uint32) *RAT {
	table := make([]RegValue, size)
	for i := range table {
		var v uint32
		if i < len(initial) {
			v = initial[i]
		}
		table[i] = CommittedValue(v)
	}
	return &RAT{table: table}
}

// Size returns the number of architectural registers this table tracks.
func (t *RAT) Size() int {
	return len(t.table)
}

func (t *RAT) checkReg(r prim.ArchReg) {
	if int(r) >= len(t.table) {
		panic(fmt.Sprintf("rat: register %d out of range", r))
	}
}

// Read returns the raw tag currently held for r, without attempting
// to resolve a pending rename against the reorder buffer.
func (t *RAT) Read(r prim.ArchReg) RegValue {
	t.checkReg(r)
	return t.table[r]
}

// Resolve returns r's value. If r holds a committed value, that value
// is returned directly. If r is renamed onto a reorder-buffer slot,
// the slot is read; the second return is false if that slot has not
// yet produced a result.
func (t *RAT) Resolve(r prim.ArchReg, buf *rob.ROB) (uint32, bool) {
	t.checkReg(r)
	tag := t.table[r]
	if tag.Kind == Value {
		return tag.Value, true
	}
	entry := buf.Get(tag.Slot)
	if entry == nil || entry.Result == nil {
		return 0, false
	}
	return *entry.Result, true
}

// Rename points r at an in-flight reorder-buffer slot, superseding
// whatever tag it previously held.
func (t *RAT) Rename(r prim.ArchReg, slot int) {
	t.checkReg(r)
	t.table[r] = PendingSlot(slot)
}

// Commit writes value into r's committed state, but only if r is
// still renamed onto slot. If a later instruction has since renamed r
// onto a different slot, Commit is a no-op: the newer rename already
// supersedes this result (write-after-write hazard resolved in favor
// of program order).
func (t *RAT) Commit(r prim.ArchReg, slot int, value uint32) {
	t.checkReg(r)
	tag := t.table[r]
	if tag.Kind == Pending && tag.Slot == slot {
		t.table[r] = CommittedValue(value)
	}
}
