// Package rob implements the reorder buffer: the in-order record of
// every instruction the core has issued but not yet retired. Each
// entry tracks where its result belongs and, once computed, the
// result itself.
package rob

import (
	"errors"
	"fmt"

	"github.com/sarchlab/oosim/prim"
)

// ErrFull is returned by Allocate when the buffer has no free slot.
var ErrFull = errors.New("rob: reorder buffer is full")

// ErrEmpty is returned by Retire and PeekHead when the buffer holds no entries.
var ErrEmpty = errors.New("rob: reorder buffer is empty")

// ErrNotComplete is returned by Retire when the head entry has not
// yet produced a result.
var ErrNotComplete = errors.New("rob: head entry is not complete")

// ErrInvariantViolation is returned when a caller addresses a slot
// that does not hold a live entry, e.g. a stale or already-retired
// index reaching Writeback.
var ErrInvariantViolation = errors.New("rob: slot does not hold a live entry")

// LocKind distinguishes the destination an in-flight instruction
// writes to.
type LocKind uint8

const (
	// LocNone marks an instruction with no architectural destination
	// (e.g. a store, once the ISA grows memory ops).
	LocNone LocKind = iota
	// LocRegister marks an instruction that writes an architectural register.
	LocRegister
)

// StorageLoc names where an in-flight instruction's result belongs.
type StorageLoc struct {
	Kind LocKind
	Reg  prim.ArchReg
}

// RegisterLoc builds a StorageLoc targeting an architectural register.
func RegisterLoc(r prim.ArchReg) StorageLoc {
	return StorageLoc{Kind: LocRegister, Reg: r}
}

// NoLoc builds a StorageLoc for an instruction with no destination.
func NoLoc() StorageLoc {
	return StorageLoc{Kind: LocNone}
}

func (l StorageLoc) String() string {
	if l.Kind == LocRegister {
		return fmt.Sprintf("Register(%d)", l.Reg)
	}
	return "None"
}

// Entry is a single in-flight instruction record.
type Entry struct {
	PC     uint32
	Dest   StorageLoc
	Result *uint32
}

// IsComplete reports whether this entry's result has been written back.
func (e Entry) IsComplete() bool {
	return e.Result != nil
}

// ROB is a fixed-capacity, in-order reorder buffer.
type ROB struct {
	buf *prim.RingBuffer[Entry]
}

// New creates a reorder buffer with room for capacity in-flight instructions.
func New(capacity int) *ROB {
	return &ROB{buf: prim.NewRingBuffer[Entry](capacity)}
}

// Capacity returns the fixed number of in-flight slots.
func (r *ROB) Capacity() int {
	return r.buf.Capacity()
}

// IsFull reports whether the buffer has no free slot.
func (r *ROB) IsFull() bool {
	return r.buf.IsFull()
}

// IsEmpty reports whether the buffer holds no entries.
func (r *ROB) IsEmpty() bool {
	return r.buf.IsEmpty()
}

// Allocate reserves the next slot for an instruction with program
// counter pc and destination dest, returning the slot index. Returns
// ErrFull if the buffer has no free slot.
func (r *ROB) Allocate(pc uint32, dest StorageLoc) (int, error) {
	slot, err := r.buf.Push(Entry{PC: pc, Dest: dest})
	if err != nil {
		return 0, fmt.Errorf("rob: allocate: %w", ErrFull)
	}
	return slot, nil
}

// Get returns the entry at slot, or nil if that slot holds no live
// entry. slot must be in [0, Capacity()).
func (r *ROB) Get(slot int) *Entry {
	return r.buf.Get(slot)
}

// Writeback records result for the instruction at slot. Returns
// ErrInvariantViolation if slot does not currently hold a live entry.
func (r *ROB) Writeback(slot int, result uint32) error {
	e := r.buf.Get(slot)
	if e == nil {
		return fmt.Errorf("rob: writeback slot %d: %w", slot, ErrInvariantViolation)
	}
	v := result
	e.Result = &v
	return nil
}

// PeekHead returns the oldest in-flight entry and its slot index
// without retiring it. Returns ErrEmpty if the buffer is empty.
func (r *ROB) PeekHead() (Entry, int, error) {
	if r.buf.IsEmpty() {
		return Entry{}, 0, ErrEmpty
	}
	head := r.buf.Head()
	e := r.buf.Get(head)
	return *e, head, nil
}

// Retire removes the oldest in-flight entry if it has completed.
// Returns ErrEmpty if the buffer is empty, or ErrNotComplete if the
// head entry has not yet produced a result.
func (r *ROB) Retire() (Entry, int, error) {
	e, _, err := r.PeekHead()
	if err != nil {
		return Entry{}, 0, err
	}
	if !e.IsComplete() {
		return Entry{}, 0, ErrNotComplete
	}
	popped, idx, err := r.buf.Pop()
	if err != nil {
		// Unreachable: PeekHead already confirmed a head entry exists.
		return Entry{}, 0, err
	}
	return popped, idx, nil
}

// Status is a point-in-time snapshot of the reorder buffer's
// occupancy, for diagnostics and tests that want to assert on buffer
// state without reaching into its internals.
type Status struct {
	Capacity    int
	Occupied    int
	HeadSlot    int  // -1 if the buffer is empty
	HeadPending bool // true if a head entry exists but has not completed
}

// Status reports the buffer's current occupancy.
func (r *ROB) Status() Status {
	s := Status{Capacity: r.buf.Capacity(), HeadSlot: -1}
	for i := 0; i < r.buf.Capacity(); i++ {
		if r.buf.Get(i) != nil {
			s.Occupied++
		}
	}
	if head, slot, err := r.PeekHead(); err == nil {
		s.HeadSlot = slot
		s.HeadPending = !head.IsComplete()
	}
	return s
}

func (s Status) String() string {
	return fmt.Sprintf("rob: %d/%d occupied, head pending=%v", s.Occupied, s.Capacity, s.HeadPending)
}
