package insts

import (
	"math/rand/v2"

	"github.com/sarchlab/oosim/prim"
)

// Source produces the next instruction for the fetch stage to
// consume, or nil once the stream is exhausted.
type Source interface {
	Next() *Instruction
}

// ScriptedSource replays a fixed instruction sequence, useful for
// deterministic tests. Once exhausted, Next returns nil forever.
type ScriptedSource struct {
	program []Instruction
	pos     int
}

// NewScriptedSource builds a Source that replays program in order.
func NewScriptedSource(program []Instruction) *ScriptedSource {
	return &ScriptedSource{program: program}
}

// Next returns the next scripted instruction, or nil once the script
// is exhausted.
func (s *ScriptedSource) Next() *Instruction {
	if s.pos >= len(s.program) {
		return nil
	}
	inst := s.program[s.pos]
	s.pos++
	return &inst
}

// RandomSource generates an unbounded stream of random Op/OpImm
// instructions over a small register window, matching the
// distribution the reference random-instruction generator used:
// destinations avoid register 0, operands are drawn from the low
// register file, OpImm forms fold Sub into Add (there is no
// subtract-immediate encoding), and Slt is never generated: both Op
// and OpImm forms fold it into Sltu.
type RandomSource struct {
	rng         *rand.Rand
	regCount    uint32
	destMin     uint32
	regOperands uint32
}

// NewRandomSource builds a RandomSource seeded by seed, generating
// destinations in [1, regCount) and operands in [0, operandRegCount).
func NewRandomSource(seed int64, regCount uint32) *RandomSource {
	operandRegCount := regCount
	if operandRegCount > 8 {
		operandRegCount = 8
	}
	return &RandomSource{
		rng:         rand.New(rand.NewPCG(uint64(seed), uint64(seed>>32)^0x9e3779b9)),
		regCount:    regCount,
		destMin:     1,
		regOperands: operandRegCount,
	}
}

var aluOps = []ALUOp{Add, Sub, Sll, Slt, Sltu, Xor, Srl, Sra, Or, And}

func (s *RandomSource) randReg(min, bound uint32) prim.ArchReg {
	return prim.ArchReg(min + uint32(s.rng.IntN(int(bound-min))))
}

func (s *RandomSource) randALUOp() ALUOp {
	op := aluOps[s.rng.IntN(len(aluOps))]
	if op == Slt {
		// This source never emits Slt, in either form; it degrades to
		// its unsigned counterpart.
		op = Sltu
	}
	return op
}

// Next generates a random Op or OpImm instruction.
func (s *RandomSource) Next() *Instruction {
	rd := s.randReg(s.destMin, s.regCount)
	rs1 := s.randReg(0, s.regOperands)
	op := s.randALUOp()

	if s.rng.IntN(2) == 0 {
		// Register-immediate form.
		if op == Sub {
			// There is no subtract-immediate encoding; fold to Add.
			op = Add
		}
		var imm int32
		switch op {
		case Sll, Srl, Sra:
			imm = int32(s.rng.IntN(32))
		default:
			imm = int32(s.rng.IntN(0x1000) - 0x800)
		}
		inst, err := NewOpImm(rd, rs1, imm, op)
		if err != nil {
			panic(err)
		}
		return &inst
	}

	rs2 := s.randReg(0, s.regOperands)
	inst := NewOp(rd, rs1, rs2, op)
	return &inst
}
