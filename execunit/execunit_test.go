package execunit_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/oosim/execunit"
	"github.com/sarchlab/oosim/rob"
)

var _ = Describe("AddSubUnit", func() {
	var u *execunit.AddSubUnit

	BeforeEach(func() {
		u = execunit.NewAddSubUnit()
	})

	It("starts idle", func() {
		Expect(u.IsBusy()).To(BeFalse())
	})

	It("adds with unsigned wraparound", func() {
		u.Prepare(execunit.Dispatched{RobSlot: 3, Op: execunit.AddSub(execunit.Add), X: 0xffffffff, Y: 2})
		Expect(u.IsBusy()).To(BeTrue())
		u.Execute()
		c, ok := u.Complete()
		Expect(ok).To(BeTrue())
		Expect(c.RobSlot).To(Equal(3))
		Expect(c.Result).To(Equal(uint32(1)))
		Expect(u.IsBusy()).To(BeFalse())
	})

	It("subtracts", func() {
		u.Prepare(execunit.Dispatched{RobSlot: 0, Op: execunit.AddSub(execunit.Sub), X: 5, Y: 8})
		u.Execute()
		c, _ := u.Complete()
		Expect(c.Result).To(Equal(uint32(0xfffffffd))) // 5 - 8 wraps
	})

	It("stays busy from prepare through execute until drained", func() {
		u.Prepare(execunit.Dispatched{RobSlot: 1, Op: execunit.AddSub(execunit.Add), X: 1, Y: 1})
		u.Execute()
		Expect(u.IsBusy()).To(BeTrue())
		_, ok := u.Complete()
		Expect(ok).To(BeTrue())
		Expect(u.IsBusy()).To(BeFalse())
	})

	It("panics if prepared while already busy", func() {
		u.Prepare(execunit.Dispatched{RobSlot: 0, Op: execunit.AddSub(execunit.Add)})
		Expect(func() {
			u.Prepare(execunit.Dispatched{RobSlot: 1, Op: execunit.AddSub(execunit.Add)})
		}).To(Panic())
	})
})

var _ = Describe("LogicalUnit", func() {
	var u *execunit.LogicalUnit

	BeforeEach(func() {
		u = execunit.NewLogicalUnit()
	})

	run := func(op execunit.LogicalOp, x, y uint32) uint32 {
		u.Prepare(execunit.Dispatched{RobSlot: 0, Op: execunit.Logical(op), X: x, Y: y})
		u.Execute()
		c, _ := u.Complete()
		return c.Result
	}

	It("computes bitwise and/or/xor", func() {
		Expect(run(execunit.And, 0xf0, 0x3c)).To(Equal(uint32(0x30)))
		Expect(run(execunit.Or, 0xf0, 0x0f)).To(Equal(uint32(0xff)))
		Expect(run(execunit.Xor, 0xff, 0x0f)).To(Equal(uint32(0xf0)))
	})

	It("shifts left, saturating to zero at or beyond the register width", func() {
		Expect(run(execunit.Sll, 1, 4)).To(Equal(uint32(16)))
		Expect(run(execunit.Sll, 1, 32)).To(Equal(uint32(0)))
	})

	It("shifts right logically, saturating to zero at or beyond the register width", func() {
		Expect(run(execunit.Srl, 0x80000000, 4)).To(Equal(uint32(0x08000000)))
		Expect(run(execunit.Srl, 0x80000000, 32)).To(Equal(uint32(0)))
	})

	It("shifts right arithmetically, sign-extending even at or beyond the register width", func() {
		Expect(run(execunit.Sra, 0x80000000, 4)).To(Equal(uint32(0xf8000000)))
		Expect(run(execunit.Sra, 0x80000000, 32)).To(Equal(uint32(0xffffffff)))
		Expect(run(execunit.Sra, 0x7fffffff, 32)).To(Equal(uint32(0)))
	})
})

var _ = Describe("ComparatorUnit", func() {
	var u *execunit.ComparatorUnit

	BeforeEach(func() {
		u = execunit.NewComparatorUnit()
	})

	run := func(op execunit.CompareOp, x, y uint32) uint32 {
		u.Prepare(execunit.Dispatched{RobSlot: 0, Op: execunit.Compare(op), X: x, Y: y})
		u.Execute()
		c, _ := u.Complete()
		return c.Result
	}

	It("compares signed values", func() {
		Expect(run(execunit.LtSigned, 0xffffffff, 1)).To(Equal(uint32(1))) // -1 < 1
		Expect(run(execunit.LtSigned, 1, 0xffffffff)).To(Equal(uint32(0)))
	})

	It("compares unsigned values", func() {
		Expect(run(execunit.LtUnsigned, 0xffffffff, 1)).To(Equal(uint32(0)))
		Expect(run(execunit.LtUnsigned, 1, 0xffffffff)).To(Equal(uint32(1)))
	})
})

var _ = Describe("Dispatched destinations carry rob.StorageLoc", func() {
	It("round-trips a register destination", func() {
		d := execunit.Dispatched{Dest: rob.RegisterLoc(5)}
		Expect(d.Dest.Kind).To(Equal(rob.LocRegister))
	})
})
