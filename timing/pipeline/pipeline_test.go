package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/oosim/config"
	"github.com/sarchlab/oosim/insts"
	"github.com/sarchlab/oosim/rat"
	"github.com/sarchlab/oosim/timing/pipeline"
)

// defaultConfig mirrors the scenario baseline: R=8, ROB=16, RS=4,
// initial RAT = [0x00000000, 0x11111111, ..., 0x77777777].
func defaultConfig() *config.Config {
	return config.DefaultConfig()
}

func runUntilIdle(p *pipeline.Pipeline, maxCycles int) {
	for i := 0; i < maxCycles; i++ {
		Expect(p.Tick()).To(Succeed())
	}
}

var _ = Describe("scenario: simple rename and retire", func() {
	// Op(r1, r2, r3, Add): rename then eventual in-order retirement
	// commits the sum to the RAT.
	It("commits r1 = r2 + r3 to the RAT once the instruction retires", func() {
		cfg := defaultConfig()
		src := insts.NewScriptedSource([]insts.Instruction{
			insts.NewOp(1, 2, 3, insts.Add),
		})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		runUntilIdle(p, 8)

		Expect(p.RAT().Read(1)).To(Equal(rat.CommittedValue(0x11111111 + 0x22222222)))
	})
})

var _ = Describe("scenario: read-after-write via rename", func() {
	// Op(r1, r2, r3, Add); Op(r4, r1, r1, Xor): the second instruction
	// must observe r1's renamed value, not its stale committed value.
	It("resolves the dependent xor to zero once the producer writes back", func() {
		cfg := defaultConfig()
		src := insts.NewScriptedSource([]insts.Instruction{
			insts.NewOp(1, 2, 3, insts.Add),
			insts.NewOp(4, 1, 1, insts.Xor),
		})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		runUntilIdle(p, 12)

		Expect(p.RAT().Read(4)).To(Equal(rat.CommittedValue(0)))
	})
})

var _ = Describe("scenario: structural stall", func() {
	// With a reorder buffer of capacity 1, a second instruction cannot
	// issue until the first has retired and freed its slot; the RAT
	// must stay untouched for the stalled instruction in the meantime.
	It("stalls issue when the rob is full and leaves the RAT untouched", func() {
		cfg := defaultConfig()
		cfg.ROBCapacity = 1
		cfg.ReservationStationCount = 2
		src := insts.NewScriptedSource([]insts.Instruction{
			insts.NewOp(1, 2, 3, insts.Add),
			insts.NewOp(4, 5, 6, insts.Add),
		})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		Expect(p.Tick()).To(Succeed()) // issues inst0
		Expect(p.Tick()).To(Succeed()) // dispatches inst0; inst1 stalls: rob full

		Expect(p.RAT().Read(4)).To(Equal(rat.CommittedValue(0x44444444)))
		Expect(p.Stats().IssueStalls).To(BeNumerically(">=", uint64(1)))

		runUntilIdle(p, 6)
		Expect(p.RAT().Read(1)).To(Equal(rat.CommittedValue(0x11111111 + 0x22222222)))
		Expect(p.RAT().Read(4)).To(Equal(rat.CommittedValue(0x55555555 + 0x66666666)))
	})
})

var _ = Describe("scenario: write-after-write resolution", func() {
	// Op(r1, r2, r3, Add); Op(r1, r4, r5, Or): both retire, but the
	// second instruction's rename supersedes the first's commit.
	It("commits the value of the younger write, not the older one", func() {
		cfg := defaultConfig()
		src := insts.NewScriptedSource([]insts.Instruction{
			insts.NewOp(1, 2, 3, insts.Add), // r1 = 0x11111111 + 0x22222222
			insts.NewOp(1, 4, 5, insts.Or),  // r1 = 0x44444444 | 0x55555555
		})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		runUntilIdle(p, 12)

		Expect(p.RAT().Read(1)).To(Equal(rat.CommittedValue(0x44444444 | 0x55555555)))
	})
})

var _ = Describe("scenario: shift immediate truncation", func() {
	// OpImm(r1, r2, 33, Sll) with r2=0x11111111: the 5-bit shamt field
	// only ever carries the low 5 bits of 33, i.e. 1.
	It("truncates the encoded shift amount instead of saturating to zero", func() {
		cfg := defaultConfig()
		cfg.InitialRegisterValues[2] = 0x11111111
		opImm, err := insts.NewOpImm(1, 2, 33, insts.Sll)
		Expect(err).NotTo(HaveOccurred())
		src := insts.NewScriptedSource([]insts.Instruction{opImm})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		runUntilIdle(p, 8)

		Expect(p.RAT().Read(1)).To(Equal(rat.CommittedValue(0x22222222)))
	})
})

var _ = Describe("scenario: signed compare", func() {
	// Op(r4, r1, r2, Slt) with r1 = -1, r2 = 1: signed less-than is true.
	It("computes a signed less-than comparison correctly", func() {
		cfg := defaultConfig()
		cfg.InitialRegisterValues = []uint32{0, 0xffffffff, 1}
		src := insts.NewScriptedSource([]insts.Instruction{
			insts.NewOp(4, 1, 2, insts.Slt),
		})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		runUntilIdle(p, 8)

		Expect(p.RAT().Read(4)).To(Equal(rat.CommittedValue(1)))
	})
})

var _ = Describe("scenario: unsupported instruction is fatal", func() {
	It("halts the simulation when a Load instruction reaches the core", func() {
		cfg := defaultConfig()
		src := insts.NewScriptedSource([]insts.Instruction{
			insts.NewLoad(1, 2, 0, insts.Word),
		})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		err := p.Tick()
		Expect(err).To(MatchError(pipeline.ErrUnsupportedInstruction))
		Expect(p.Err()).To(Equal(err))

		// Sticky: further ticks keep returning the same fatal error.
		Expect(p.Tick()).To(Equal(err))
	})
})

var _ = Describe("Run", func() {
	It("drains every in-flight instruction before returning", func() {
		cfg := defaultConfig()
		src := insts.NewScriptedSource([]insts.Instruction{
			insts.NewOp(1, 2, 3, insts.Add),
			insts.NewOp(4, 5, 6, insts.Add),
			insts.NewOp(7, 1, 4, insts.Or),
		})
		p := pipeline.New(cfg, pipeline.WithSource(src))

		Expect(p.Run()).To(Succeed())
		Expect(p.ROB().IsEmpty()).To(BeTrue())
		Expect(p.Stats().InstructionsRetired).To(Equal(uint64(3)))
	})
})
