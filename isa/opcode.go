// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

// Register is a 3-bit register field as encoded in 8085 opcodes.
// M is memory addressed by HL.
type Register int

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_B = Register(0) // B
	REG_C = Register(1) // C
	REG_D = Register(2) // D
	REG_E = Register(3) // E
	REG_H = Register(4) // H
	REG_L = Register(5) // L
	REG_M = Register(6) // M
	REG_A = Register(7) // A
)

// Pair is a register pair operand.
// PSW shares the SP encoding and is only legal for PUSH/POP.
type Pair int

//go:generate go tool stringer -linecomment -type=Pair
const (
	PAIR_B   = Pair(0) // B
	PAIR_D   = Pair(1) // D
	PAIR_H   = Pair(2) // H
	PAIR_SP  = Pair(3) // SP
	PAIR_PSW = Pair(4) // PSW
)

// Code returns the 2-bit encoding of the pair.
func (p Pair) Code() int {
	if p == PAIR_PSW {
		return 3
	}
	return int(p)
}

// Cond is a branch condition as encoded in bits 3..5 of Jcc/Ccc/Rcc.
type Cond int

//go:generate go tool stringer -linecomment -type=Cond
const (
	COND_NZ = Cond(0) // NZ
	COND_Z  = Cond(1) // Z
	COND_NC = Cond(2) // NC
	COND_C  = Cond(3) // C
	COND_PO = Cond(4) // PO
	COND_PE = Cond(5) // PE
	COND_P  = Cond(6) // P
	COND_M  = Cond(7) // M
)

// Flag returns the flag tested by the condition, and the flag value
// which makes the condition true.
func (c Cond) Flag() (flag FlagMask, want bool) {
	switch c {
	case COND_NZ, COND_Z:
		flag = FLAG_Z
	case COND_NC, COND_C:
		flag = FLAG_CY
	case COND_PO, COND_PE:
		flag = FLAG_P
	case COND_P, COND_M:
		flag = FLAG_S
	}
	want = (c & 1) == 1
	return
}

// FlagMask is a set of flags, using the bit positions of the 8085 PSW.
type FlagMask uint8

const (
	FLAG_CY = FlagMask(1 << 0) // Carry
	FLAG_P  = FlagMask(1 << 2) // Parity
	FLAG_AC = FlagMask(1 << 4) // Auxiliary carry
	FLAG_Z  = FlagMask(1 << 6) // Zero
	FLAG_S  = FlagMask(1 << 7) // Sign

	FLAG_NONE = FlagMask(0)
	FLAG_ALL  = FLAG_S | FLAG_Z | FLAG_AC | FLAG_P | FLAG_CY
)

func (fm FlagMask) String() (text string) {
	for _, flag := range []struct {
		mask FlagMask
		name string
	}{
		{FLAG_S, "S"}, {FLAG_Z, "Z"}, {FLAG_AC, "AC"}, {FLAG_P, "P"}, {FLAG_CY, "CY"},
	} {
		if fm&flag.mask == 0 {
			continue
		}
		if len(text) > 0 {
			text += ","
		}
		text += flag.name
	}
	if len(text) == 0 {
		text = "-"
	}
	return
}

// Pattern is the syntactic shape of an instruction's operands.
type Pattern int

const (
	PATTERN_NONE       = Pattern(0)  // NOP
	PATTERN_REG        = Pattern(1)  // ADD r
	PATTERN_REG_REG    = Pattern(2)  // MOV r,r
	PATTERN_REG_IMM8   = Pattern(3)  // MVI r,d8
	PATTERN_PAIR       = Pattern(4)  // INX rp
	PATTERN_PAIR_IMM16 = Pattern(5)  // LXI rp,d16
	PATTERN_PAIR_BD    = Pattern(6)  // LDAX B|D
	PATTERN_PAIR_PSW   = Pattern(7)  // PUSH B|D|H|PSW
	PATTERN_IMM8       = Pattern(8)  // ADI d8
	PATTERN_IMM16      = Pattern(9)  // JMP a16
	PATTERN_RST        = Pattern(10) // RST n
)

// Operands is the number of comma separated operands the pattern takes.
func (p Pattern) Operands() int {
	switch p {
	case PATTERN_NONE:
		return 0
	case PATTERN_REG_REG, PATTERN_REG_IMM8, PATTERN_PAIR_IMM16:
		return 2
	default:
		return 1
	}
}

// Immediate is the number of data bytes following the opcode.
func (p Pattern) Immediate() int {
	switch p {
	case PATTERN_REG_IMM8, PATTERN_IMM8:
		return 1
	case PATTERN_PAIR_IMM16, PATTERN_IMM16:
		return 2
	default:
		return 0
	}
}

// Category is the flag-effect category of an instruction.
//
// Arithmetic with carry out is arith8, INR/DCR are incdec8, INX/DCX are
// arith16. Logical covers AND, OR, XOR and compare. Unsupported covers
// IN, OUT, EI, DI, RIM and SIM.
type Category int

//go:generate go tool stringer -linecomment -type=Category
const (
	CATEGORY_TRANSFER    = Category(0)  // transfer
	CATEGORY_ARITH8      = Category(1)  // arith8
	CATEGORY_INCDEC8     = Category(2)  // incdec8
	CATEGORY_ARITH16     = Category(3)  // arith16
	CATEGORY_DAD         = Category(4)  // dad
	CATEGORY_DAA         = Category(5)  // daa
	CATEGORY_LOGICAL     = Category(6)  // logical
	CATEGORY_COMPLEMENT  = Category(7)  // complement
	CATEGORY_ROTATE      = Category(8)  // rotate
	CATEGORY_CARRY       = Category(9)  // carry
	CATEGORY_BRANCH      = Category(10) // branch
	CATEGORY_STACK       = Category(11) // stack
	CATEGORY_MACHINE     = Category(12) // machine
	CATEGORY_UNSUPPORTED = Category(13) // unsupported
)

// Affects returns the flags an instruction of the category may modify.
func (c Category) Affects() FlagMask {
	switch c {
	case CATEGORY_ARITH8, CATEGORY_DAA, CATEGORY_LOGICAL:
		return FLAG_ALL
	case CATEGORY_INCDEC8:
		return FLAG_S | FLAG_Z | FLAG_AC | FLAG_P
	case CATEGORY_DAD, CATEGORY_ROTATE, CATEGORY_CARRY:
		return FLAG_CY
	default:
		return FLAG_NONE
	}
}

// Op identifies the operation an instruction performs.
type Op int

const (
	OP_NOP = Op(iota)
	OP_MOV
	OP_MVI
	OP_LXI
	OP_LDA
	OP_STA
	OP_LDAX
	OP_STAX
	OP_LHLD
	OP_SHLD
	OP_XCHG
	OP_XTHL
	OP_SPHL
	OP_PCHL
	OP_ADD
	OP_ADC
	OP_SUB
	OP_SBB
	OP_ADI
	OP_ACI
	OP_SUI
	OP_SBI
	OP_INR
	OP_DCR
	OP_INX
	OP_DCX
	OP_DAD
	OP_DAA
	OP_ANA
	OP_ANI
	OP_ORA
	OP_ORI
	OP_XRA
	OP_XRI
	OP_CMP
	OP_CPI
	OP_CMA
	OP_RLC
	OP_RRC
	OP_RAL
	OP_RAR
	OP_STC
	OP_CMC
	OP_JMP
	OP_JCC
	OP_CALL
	OP_CCC
	OP_RET
	OP_RCC
	OP_RST
	OP_PUSH
	OP_POP
	OP_HLT
	OP_IN
	OP_OUT
	OP_EI
	OP_DI
	OP_RIM
	OP_SIM
)
