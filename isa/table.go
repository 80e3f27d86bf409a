// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"fmt"
	"strings"
)

// Descriptor describes one mnemonic of the 8085 instruction set.
type Descriptor struct {
	Mnemonic string   // Upper case mnemonic.
	Pattern  Pattern  // Operand shape.
	Opcode   byte     // Opcode with all register, pair and vector fields zero.
	Length   int      // Instruction length in bytes.
	Category Category // Flag-effect category.
	Op       Op       // Operation.
	Cond     Cond     // Condition, for OP_JCC, OP_CCC and OP_RCC.
	RegShift int      // Bit position of the register field for PATTERN_REG.
}

// Conditional returns true for the conditional jump, call and return forms.
func (desc *Descriptor) Conditional() bool {
	return desc.Op == OP_JCC || desc.Op == OP_CCC || desc.Op == OP_RCC
}

// Encode returns the opcode byte with the operand fields filled in.
//
//   - PATTERN_REG: fields[0] is the register.
//   - PATTERN_REG_REG: fields[0] is the destination, fields[1] the source.
//   - PATTERN_REG_IMM8: fields[0] is the register.
//   - PATTERN_PAIR*: fields[0] is the Pair.
//   - PATTERN_RST: fields[0] is the restart vector.
func (desc *Descriptor) Encode(fields ...int) (opcode byte) {
	opcode = desc.Opcode
	field := func(n int) byte {
		if n < len(fields) {
			return byte(fields[n])
		}
		return 0
	}

	switch desc.Pattern {
	case PATTERN_REG:
		opcode |= (field(0) & 7) << desc.RegShift
	case PATTERN_REG_REG:
		opcode |= ((field(0) & 7) << 3) | (field(1) & 7)
	case PATTERN_REG_IMM8, PATTERN_RST:
		opcode |= (field(0) & 7) << 3
	case PATTERN_PAIR, PATTERN_PAIR_IMM16, PATTERN_PAIR_BD, PATTERN_PAIR_PSW:
		opcode |= (field(0) & 3) << 4
	}

	return
}

func (desc *Descriptor) String() string {
	return desc.Mnemonic
}

func describe(mnemonic string, pattern Pattern, opcode byte, category Category, op Op) *Descriptor {
	return &Descriptor{
		Mnemonic: mnemonic,
		Pattern:  pattern,
		Opcode:   opcode,
		Length:   1 + pattern.Immediate(),
		Category: category,
		Op:       op,
	}
}

func describeReg(mnemonic string, opcode byte, shift int, category Category, op Op) *Descriptor {
	desc := describe(mnemonic, PATTERN_REG, opcode, category, op)
	desc.RegShift = shift
	return desc
}

func describeCond(prefix string, pattern Pattern, base byte, op Op) (descs []*Descriptor) {
	for cond := COND_NZ; cond <= COND_M; cond++ {
		desc := describe(prefix+cond.String(), pattern, base|byte(cond)<<3, CATEGORY_BRANCH, op)
		desc.Cond = cond
		descs = append(descs, desc)
	}
	return
}

// descriptors is the complete 8085 mnemonic set.
func descriptors() (descs []*Descriptor) {
	descs = []*Descriptor{
		// Data transfer
		describe("MOV", PATTERN_REG_REG, 0x40, CATEGORY_TRANSFER, OP_MOV),
		describe("MVI", PATTERN_REG_IMM8, 0x06, CATEGORY_TRANSFER, OP_MVI),
		describe("LXI", PATTERN_PAIR_IMM16, 0x01, CATEGORY_TRANSFER, OP_LXI),
		describe("LDA", PATTERN_IMM16, 0x3a, CATEGORY_TRANSFER, OP_LDA),
		describe("STA", PATTERN_IMM16, 0x32, CATEGORY_TRANSFER, OP_STA),
		describe("LDAX", PATTERN_PAIR_BD, 0x0a, CATEGORY_TRANSFER, OP_LDAX),
		describe("STAX", PATTERN_PAIR_BD, 0x02, CATEGORY_TRANSFER, OP_STAX),
		describe("LHLD", PATTERN_IMM16, 0x2a, CATEGORY_TRANSFER, OP_LHLD),
		describe("SHLD", PATTERN_IMM16, 0x22, CATEGORY_TRANSFER, OP_SHLD),
		describe("XCHG", PATTERN_NONE, 0xeb, CATEGORY_TRANSFER, OP_XCHG),
		describe("XTHL", PATTERN_NONE, 0xe3, CATEGORY_TRANSFER, OP_XTHL),
		describe("SPHL", PATTERN_NONE, 0xf9, CATEGORY_TRANSFER, OP_SPHL),
		describe("PCHL", PATTERN_NONE, 0xe9, CATEGORY_TRANSFER, OP_PCHL),

		// 8-bit arithmetic
		describeReg("ADD", 0x80, 0, CATEGORY_ARITH8, OP_ADD),
		describeReg("ADC", 0x88, 0, CATEGORY_ARITH8, OP_ADC),
		describeReg("SUB", 0x90, 0, CATEGORY_ARITH8, OP_SUB),
		describeReg("SBB", 0x98, 0, CATEGORY_ARITH8, OP_SBB),
		describe("ADI", PATTERN_IMM8, 0xc6, CATEGORY_ARITH8, OP_ADI),
		describe("ACI", PATTERN_IMM8, 0xce, CATEGORY_ARITH8, OP_ACI),
		describe("SUI", PATTERN_IMM8, 0xd6, CATEGORY_ARITH8, OP_SUI),
		describe("SBI", PATTERN_IMM8, 0xde, CATEGORY_ARITH8, OP_SBI),
		describeReg("INR", 0x04, 3, CATEGORY_INCDEC8, OP_INR),
		describeReg("DCR", 0x05, 3, CATEGORY_INCDEC8, OP_DCR),

		// 16-bit arithmetic
		describe("INX", PATTERN_PAIR, 0x03, CATEGORY_ARITH16, OP_INX),
		describe("DCX", PATTERN_PAIR, 0x0b, CATEGORY_ARITH16, OP_DCX),
		describe("DAD", PATTERN_PAIR, 0x09, CATEGORY_DAD, OP_DAD),
		describe("DAA", PATTERN_NONE, 0x27, CATEGORY_DAA, OP_DAA),

		// Logical
		describeReg("ANA", 0xa0, 0, CATEGORY_LOGICAL, OP_ANA),
		describeReg("XRA", 0xa8, 0, CATEGORY_LOGICAL, OP_XRA),
		describeReg("ORA", 0xb0, 0, CATEGORY_LOGICAL, OP_ORA),
		describeReg("CMP", 0xb8, 0, CATEGORY_LOGICAL, OP_CMP),
		describe("ANI", PATTERN_IMM8, 0xe6, CATEGORY_LOGICAL, OP_ANI),
		describe("XRI", PATTERN_IMM8, 0xee, CATEGORY_LOGICAL, OP_XRI),
		describe("ORI", PATTERN_IMM8, 0xf6, CATEGORY_LOGICAL, OP_ORI),
		describe("CPI", PATTERN_IMM8, 0xfe, CATEGORY_LOGICAL, OP_CPI),
		describe("CMA", PATTERN_NONE, 0x2f, CATEGORY_COMPLEMENT, OP_CMA),

		// Rotate
		describe("RLC", PATTERN_NONE, 0x07, CATEGORY_ROTATE, OP_RLC),
		describe("RRC", PATTERN_NONE, 0x0f, CATEGORY_ROTATE, OP_RRC),
		describe("RAL", PATTERN_NONE, 0x17, CATEGORY_ROTATE, OP_RAL),
		describe("RAR", PATTERN_NONE, 0x1f, CATEGORY_ROTATE, OP_RAR),

		// Carry
		describe("STC", PATTERN_NONE, 0x37, CATEGORY_CARRY, OP_STC),
		describe("CMC", PATTERN_NONE, 0x3f, CATEGORY_CARRY, OP_CMC),

		// Branch
		describe("JMP", PATTERN_IMM16, 0xc3, CATEGORY_BRANCH, OP_JMP),
		describe("CALL", PATTERN_IMM16, 0xcd, CATEGORY_BRANCH, OP_CALL),
		describe("RET", PATTERN_NONE, 0xc9, CATEGORY_BRANCH, OP_RET),
		describe("RST", PATTERN_RST, 0xc7, CATEGORY_BRANCH, OP_RST),

		// Stack
		describe("PUSH", PATTERN_PAIR_PSW, 0xc5, CATEGORY_STACK, OP_PUSH),
		describe("POP", PATTERN_PAIR_PSW, 0xc1, CATEGORY_STACK, OP_POP),

		// Machine control
		describe("HLT", PATTERN_NONE, 0x76, CATEGORY_MACHINE, OP_HLT),
		describe("NOP", PATTERN_NONE, 0x00, CATEGORY_MACHINE, OP_NOP),

		// Assembled, never executed.
		describe("IN", PATTERN_IMM8, 0xdb, CATEGORY_UNSUPPORTED, OP_IN),
		describe("OUT", PATTERN_IMM8, 0xd3, CATEGORY_UNSUPPORTED, OP_OUT),
		describe("EI", PATTERN_NONE, 0xfb, CATEGORY_UNSUPPORTED, OP_EI),
		describe("DI", PATTERN_NONE, 0xf3, CATEGORY_UNSUPPORTED, OP_DI),
		describe("RIM", PATTERN_NONE, 0x20, CATEGORY_UNSUPPORTED, OP_RIM),
		describe("SIM", PATTERN_NONE, 0x30, CATEGORY_UNSUPPORTED, OP_SIM),
	}

	descs = append(descs, describeCond("J", PATTERN_IMM16, 0xc2, OP_JCC)...)
	descs = append(descs, describeCond("C", PATTERN_IMM16, 0xc4, OP_CCC)...)
	descs = append(descs, describeCond("R", PATTERN_NONE, 0xc0, OP_RCC)...)

	return
}

// Instruction is a fully decoded opcode byte.
type Instruction struct {
	*Descriptor
	Opcode  byte     // Opcode byte.
	Dst     Register // Destination (or only) register.
	Src     Register // Source register, for MOV.
	Pair    Pair     // Register pair.
	Vector  int      // Restart vector, for RST.
	Affects FlagMask // Flags the instruction may modify.
}

// Supported is false for opcodes the simulator refuses to execute.
func (inst *Instruction) Supported() bool {
	return inst != nil && inst.Descriptor != nil && inst.Category != CATEGORY_UNSUPPORTED
}

// Table holds the mnemonic and opcode lookup tables.
type Table struct {
	mnemonic map[string]*Descriptor
	decode   [256]*Instruction
}

// defaultTable is the process-wide instruction table.
var defaultTable = newTable()

func newTable() (table *Table) {
	table = &Table{
		mnemonic: map[string]*Descriptor{},
	}

	add := func(inst *Instruction) {
		if prior := table.decode[inst.Opcode]; prior != nil {
			panic(fmt.Sprintf("isa: opcode 0x%02x used by %v and %v", inst.Opcode, prior.Mnemonic, inst.Mnemonic))
		}
		inst.Affects = inst.Category.Affects()
		if inst.Op == OP_POP && inst.Pair == PAIR_PSW {
			inst.Affects = FLAG_ALL
		}
		table.decode[inst.Opcode] = inst
	}

	for _, desc := range descriptors() {
		table.mnemonic[desc.Mnemonic] = desc

		switch desc.Pattern {
		case PATTERN_REG:
			for reg := REG_B; reg <= REG_A; reg++ {
				add(&Instruction{Descriptor: desc, Opcode: desc.Encode(int(reg)), Dst: reg})
			}
		case PATTERN_REG_REG:
			for dst := REG_B; dst <= REG_A; dst++ {
				for src := REG_B; src <= REG_A; src++ {
					if dst == REG_M && src == REG_M {
						// HLT
						continue
					}
					add(&Instruction{Descriptor: desc, Opcode: desc.Encode(int(dst), int(src)), Dst: dst, Src: src})
				}
			}
		case PATTERN_REG_IMM8:
			for reg := REG_B; reg <= REG_A; reg++ {
				add(&Instruction{Descriptor: desc, Opcode: desc.Encode(int(reg)), Dst: reg})
			}
		case PATTERN_PAIR, PATTERN_PAIR_IMM16:
			for pair := PAIR_B; pair <= PAIR_SP; pair++ {
				add(&Instruction{Descriptor: desc, Opcode: desc.Encode(int(pair)), Pair: pair})
			}
		case PATTERN_PAIR_BD:
			for pair := PAIR_B; pair <= PAIR_D; pair++ {
				add(&Instruction{Descriptor: desc, Opcode: desc.Encode(int(pair)), Pair: pair})
			}
		case PATTERN_PAIR_PSW:
			for _, pair := range []Pair{PAIR_B, PAIR_D, PAIR_H, PAIR_PSW} {
				add(&Instruction{Descriptor: desc, Opcode: desc.Encode(pair.Code()), Pair: pair})
			}
		case PATTERN_RST:
			for vector := range 8 {
				add(&Instruction{Descriptor: desc, Opcode: desc.Encode(vector), Vector: vector})
			}
		default:
			add(&Instruction{Descriptor: desc, Opcode: desc.Opcode})
		}
	}

	return
}

// Lookup finds the descriptor for a mnemonic, in any case.
func Lookup(mnemonic string) (desc *Descriptor, ok bool) {
	desc, ok = defaultTable.mnemonic[strings.ToUpper(mnemonic)]
	return
}

// Decode returns the decoded form of an opcode byte.
// ok is false for opcodes with no 8085 definition.
func Decode(opcode byte) (inst *Instruction, ok bool) {
	inst = defaultTable.decode[opcode]
	ok = inst != nil
	return
}

// Mnemonics returns every known mnemonic.
func Mnemonics() (names []string) {
	for name := range defaultTable.mnemonic {
		names = append(names, name)
	}
	return
}

// ParseRegister parses a register name, in any case.
func ParseRegister(name string) (reg Register, ok bool) {
	name = strings.ToUpper(name)
	if len(name) != 1 {
		return
	}
	for r := REG_B; r <= REG_A; r++ {
		if r.String() == name {
			reg, ok = r, true
			return
		}
	}
	return
}

// ParsePair parses a register pair name, in any case.
// Single register aliases (BC, DE, HL) are accepted.
func ParsePair(name string) (pair Pair, ok bool) {
	switch strings.ToUpper(name) {
	case "B", "BC":
		pair, ok = PAIR_B, true
	case "D", "DE":
		pair, ok = PAIR_D, true
	case "H", "HL":
		pair, ok = PAIR_H, true
	case "SP":
		pair, ok = PAIR_SP, true
	case "PSW":
		pair, ok = PAIR_PSW, true
	}
	return
}

// Reserved returns true for names that may not be used as symbols.
func Reserved(name string) bool {
	if _, ok := ParseRegister(name); ok {
		return true
	}
	if _, ok := ParsePair(name); ok {
		return true
	}
	return false
}
