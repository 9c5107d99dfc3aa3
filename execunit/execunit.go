// Package execunit implements the functional units that execute
// dispatched operations: single-cycle adder/subtractor, logical, and
// comparator units, each modeled as prepare-execute-complete state
// machines with one operation in flight at a time.
package execunit

import (
	"fmt"

	"github.com/sarchlab/oosim/rob"
)

// Family identifies which functional unit kind an Op targets.
type Family uint8

const (
	FamilyAddSub Family = iota
	FamilyLogical
	FamilyCompare
)

// AddSubOp selects addition or subtraction.
type AddSubOp uint8

const (
	Add AddSubOp = iota
	Sub
)

// LogicalOp selects a bitwise or shift operation.
type LogicalOp uint8

const (
	And LogicalOp = iota
	Or
	Xor
	Sll
	Srl
	Sra
)

// CompareOp selects a signed or unsigned less-than comparison.
type CompareOp uint8

const (
	LtSigned CompareOp = iota
	LtUnsigned
)

// Op is a tagged union naming the exact operation a functional unit
// must perform. Exactly one of the AddSub/Logical/Compare fields is
// meaningful, selected by Family.
type Op struct {
	Family  Family
	AddSub  AddSubOp
	Logical LogicalOp
	Compare CompareOp
}

// AddSub builds an Op targeting the adder/subtractor unit.
func AddSub(op AddSubOp) Op { return Op{Family: FamilyAddSub, AddSub: op} }

// Logical builds an Op targeting the logical/shift unit.
func Logical(op LogicalOp) Op { return Op{Family: FamilyLogical, Logical: op} }

// Compare builds an Op targeting the comparator unit.
func Compare(op CompareOp) Op { return Op{Family: FamilyCompare, Compare: op} }

func (o Op) String() string {
	switch o.Family {
	case FamilyAddSub:
		return fmt.Sprintf("AddSub(%d)", o.AddSub)
	case FamilyLogical:
		return fmt.Sprintf("Logical(%d)", o.Logical)
	case FamilyCompare:
		return fmt.Sprintf("Compare(%d)", o.Compare)
	default:
		return "Unknown"
	}
}

// Dispatched is the input a scheduler hands to a functional unit: a
// resolved operation with both operands already read from the RAT/ROB.
type Dispatched struct {
	RobSlot int
	Dest    rob.StorageLoc
	Op      Op
	X, Y    uint32
}

// Completed is the output a functional unit hands back once an
// operation finishes: the reorder-buffer slot to write the result
// into.
type Completed struct {
	RobSlot int
	Result  uint32
}

// ExecutionUnit models a single-issue functional unit: at most one
// operation in flight, taking exactly one cycle from Prepare to the
// cycle after Execute.
type ExecutionUnit interface {
	// IsBusy reports whether an operation currently occupies the unit.
	IsBusy() bool
	// Prepare loads d into the unit. The caller must check IsBusy
	// first; Prepare panics if the unit is already occupied.
	Prepare(d Dispatched)
	// Execute computes the result of the unit's in-flight operation.
	// It is a no-op if the unit is not busy.
	Execute()
	// Complete drains the unit's finished operation, if any, freeing
	// it for the next Prepare.
	Complete() (Completed, bool)
}

func compute(op Op, x, y uint32) uint32 {
	switch op.Family {
	case FamilyAddSub:
		switch op.AddSub {
		case Add:
			return x + y
		case Sub:
			return x - y
		}
	case FamilyLogical:
		switch op.Logical {
		case And:
			return x & y
		case Or:
			return x | y
		case Xor:
			return x ^ y
		case Sll:
			return x << y
		case Srl:
			return x >> y
		case Sra:
			return uint32(int32(x) >> y)
		}
	case FamilyCompare:
		var result bool
		switch op.Compare {
		case LtSigned:
			result = int32(x) < int32(y)
		case LtUnsigned:
			result = x < y
		}
		if result {
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("execunit: unhandled op %v", op))
}

type singleSlotUnit struct {
	family  Family
	pending *Dispatched
	result  *Completed
}

func newSingleSlotUnit(family Family) *singleSlotUnit {
	return &singleSlotUnit{family: family}
}

func (u *singleSlotUnit) IsBusy() bool {
	return u.pending != nil || u.result != nil
}

func (u *singleSlotUnit) Prepare(d Dispatched) {
	if u.IsBusy() {
		panic("execunit: Prepare called on a busy unit")
	}
	if d.Op.Family != u.family {
		panic(fmt.Sprintf("execunit: op family %v does not match unit family %v", d.Op.Family, u.family))
	}
	v := d
	u.pending = &v
}

func (u *singleSlotUnit) Execute() {
	if u.pending == nil {
		return
	}
	res := compute(u.pending.Op, u.pending.X, u.pending.Y)
	u.result = &Completed{RobSlot: u.pending.RobSlot, Result: res}
	u.pending = nil
}

func (u *singleSlotUnit) Complete() (Completed, bool) {
	if u.result == nil {
		return Completed{}, false
	}
	c := *u.result
	u.result = nil
	return c, true
}

// AddSubUnit executes Add and Sub operations.
type AddSubUnit struct{ *singleSlotUnit }

// NewAddSubUnit creates an idle adder/subtractor unit.
func NewAddSubUnit() *AddSubUnit {
	return &AddSubUnit{singleSlotUnit: newSingleSlotUnit(FamilyAddSub)}
}

// LogicalUnit executes bitwise and shift operations.
type LogicalUnit struct{ *singleSlotUnit }

// NewLogicalUnit creates an idle logical/shift unit.
func NewLogicalUnit() *LogicalUnit {
	return &LogicalUnit{singleSlotUnit: newSingleSlotUnit(FamilyLogical)}
}

// ComparatorUnit executes signed and unsigned less-than comparisons.
type ComparatorUnit struct{ *singleSlotUnit }

// NewComparatorUnit creates an idle comparator unit.
func NewComparatorUnit() *ComparatorUnit {
	return &ComparatorUnit{singleSlotUnit: newSingleSlotUnit(FamilyCompare)}
}
