// Package insts defines the decoded instruction surface the core
// consumes: a small RV32I-like integer subset (register-register and
// register-immediate ALU operations), plus the opcode kinds the ISA
// defines but the core does not execute (Lui, Load, Store).
//
// The core never decodes raw instruction bytes; that is the external
// fetcher's job (out of scope per the core's design). This package
// only describes the decoded record shape and how to classify it.
package insts

import (
	"fmt"

	"github.com/sarchlab/oosim/execunit"
	"github.com/sarchlab/oosim/prim"
)

// Kind identifies the shape of a decoded instruction record.
type Kind uint8

// Instruction kinds. Op and OpImm are the only kinds the core
// executes; Lui, Load, and Store are part of the wider ISA this
// instruction stream can carry but are refused by the core (see
// Instruction.CoreSupported).
const (
	KindOp Kind = iota
	KindOpImm
	KindLui
	KindLoad
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindOp:
		return "Op"
	case KindOpImm:
		return "OpImm"
	case KindLui:
		return "Lui"
	case KindLoad:
		return "Load"
	case KindStore:
		return "Store"
	default:
		return "Unknown"
	}
}

// ALUOp identifies the arithmetic/logical/compare operation an Op or
// OpImm instruction performs.
type ALUOp uint8

// ALU operations. Sub is not a legal ALUOp for OpImm (there is no
// subtract-immediate form in this ISA).
const (
	Add ALUOp = iota
	Sub
	Sll
	Slt
	Sltu
	Xor
	Srl
	Sra
	Or
	And
)

func (op ALUOp) String() string {
	switch op {
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Sll:
		return "Sll"
	case Slt:
		return "Slt"
	case Sltu:
		return "Sltu"
	case Xor:
		return "Xor"
	case Srl:
		return "Srl"
	case Sra:
		return "Sra"
	case Or:
		return "Or"
	case And:
		return "And"
	default:
		return "Unknown"
	}
}

// ToUop maps an ALUOp to the functional-unit operation that executes
// it. Returns an error for ALU ops with no functional-unit mapping
// (there are none today, but this keeps the mapping exhaustive and
// explicit as new ops are added).
func (op ALUOp) ToUop() (execunit.Op, error) {
	switch op {
	case Add:
		return execunit.AddSub(execunit.Add), nil
	case Sub:
		return execunit.AddSub(execunit.Sub), nil
	case Slt:
		return execunit.Compare(execunit.LtSigned), nil
	case Sltu:
		return execunit.Compare(execunit.LtUnsigned), nil
	case Xor:
		return execunit.Logical(execunit.Xor), nil
	case And:
		return execunit.Logical(execunit.And), nil
	case Or:
		return execunit.Logical(execunit.Or), nil
	case Sll:
		return execunit.Logical(execunit.Sll), nil
	case Srl:
		return execunit.Logical(execunit.Srl), nil
	case Sra:
		return execunit.Logical(execunit.Sra), nil
	default:
		return execunit.Op{}, fmt.Errorf("insts: no functional unit for %v", op)
	}
}

// Width is the memory access width for Load/Store instructions.
// Load/Store are decoded but refused by the core (out of scope); Width
// exists so the ISA surface stays complete for an external fetcher.
type Width uint8

// Memory access widths.
const (
	Byte Width = iota
	Half
	Word
)

// Instruction is a decoded instruction record. Only one group of
// fields is meaningful per Kind; see the per-kind constructors.
type Instruction struct {
	Kind Kind

	Rd  prim.ArchReg
	Rs1 prim.ArchReg
	Rs2 prim.ArchReg // valid for KindOp and KindStore

	Imm   int32 // valid for KindOpImm, KindLoad, KindStore
	ALUOp ALUOp // valid for KindOp and KindOpImm
	Width Width // valid for KindLoad and KindStore

	LuiImm uint32 // valid for KindLui
}

// NewOp builds a register-register ALU instruction: rd = rs1 <aluop> rs2.
func NewOp(rd, rs1, rs2 prim.ArchReg, aluop ALUOp) Instruction {
	return Instruction{Kind: KindOp, Rd: rd, Rs1: rs1, Rs2: rs2, ALUOp: aluop}
}

// NewOpImm builds a register-immediate ALU instruction: rd = rs1 <aluop> imm.
// aluop must not be Sub (there is no subtract-immediate encoding).
//
// Shift ops (Sll, Srl, Sra) take a 5-bit unsigned shift amount: the
// field only ever carries 5 bits, so imm is truncated to its low 5
// bits the same way a too-large constant would be truncated by the
// encoder, rather than rejected. All other ops take a signed 12-bit
// immediate, which has no such truncation and is rejected out of range.
func NewOpImm(rd, rs1 prim.ArchReg, imm int32, aluop ALUOp) (Instruction, error) {
	if aluop == Sub {
		return Instruction{}, fmt.Errorf("insts: OpImm does not support Sub")
	}
	switch aluop {
	case Sll, Srl, Sra:
		imm = int32(uint32(imm) & 0x1f)
	default:
		if imm < -0x800 || imm > 0x7ff {
			return Instruction{}, fmt.Errorf("insts: immediate %d out of signed 12-bit range", imm)
		}
	}
	return Instruction{Kind: KindOpImm, Rd: rd, Rs1: rs1, Imm: imm, ALUOp: aluop}, nil
}

// NewLui builds a load-upper-immediate instruction. Decoded but
// refused by the core.
func NewLui(rd prim.ArchReg, imm uint32) Instruction {
	return Instruction{Kind: KindLui, Rd: rd, LuiImm: imm}
}

// NewLoad builds a memory load instruction. Decoded but refused by
// the core.
func NewLoad(rd, rs1 prim.ArchReg, imm int32, width Width) Instruction {
	return Instruction{Kind: KindLoad, Rd: rd, Rs1: rs1, Imm: imm, Width: width}
}

// NewStore builds a memory store instruction. Decoded but refused by
// the core.
func NewStore(rs1, rs2 prim.ArchReg, imm int32, width Width) Instruction {
	return Instruction{Kind: KindStore, Rs1: rs1, Rs2: rs2, Imm: imm, Width: width}
}

// CoreSupported reports whether the core's execution engine can issue
// this instruction. Only Op and OpImm are supported; Lui, Load, and
// Store reach the driver only to be refused (spec allows refusing
// instructions outside the core's subset).
func (i Instruction) CoreSupported() bool {
	return i.Kind == KindOp || i.Kind == KindOpImm
}

// ReadsRs1 reports whether this instruction reads Rs1.
func (i Instruction) ReadsRs1() bool {
	switch i.Kind {
	case KindOp, KindOpImm, KindLoad, KindStore:
		return true
	default:
		return false
	}
}

// ReadsRs2 reports whether this instruction reads Rs2. Only register-
// format Op and Store read a second register source.
func (i Instruction) ReadsRs2() bool {
	switch i.Kind {
	case KindOp, KindStore:
		return true
	default:
		return false
	}
}

// WritesRd reports whether this instruction writes an architectural
// destination register.
func (i Instruction) WritesRd() bool {
	switch i.Kind {
	case KindOp, KindOpImm, KindLui, KindLoad:
		return true
	default:
		return false
	}
}

func (i Instruction) String() string {
	switch i.Kind {
	case KindOp:
		return fmt.Sprintf("Op(rd=%d, rs1=%d, rs2=%d, %v)", i.Rd, i.Rs1, i.Rs2, i.ALUOp)
	case KindOpImm:
		return fmt.Sprintf("OpImm(rd=%d, rs1=%d, imm=%d, %v)", i.Rd, i.Rs1, i.Imm, i.ALUOp)
	case KindLui:
		return fmt.Sprintf("Lui(rd=%d, imm=0x%x)", i.Rd, i.LuiImm)
	case KindLoad:
		return fmt.Sprintf("Load(rd=%d, rs1=%d, imm=%d, width=%d)", i.Rd, i.Rs1, i.Imm, i.Width)
	case KindStore:
		return fmt.Sprintf("Store(rs1=%d, rs2=%d, imm=%d, width=%d)", i.Rs1, i.Rs2, i.Imm, i.Width)
	default:
		return "Unknown"
	}
}
