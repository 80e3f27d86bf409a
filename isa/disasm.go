package isa

import (
	"fmt"
)

// Hex8 formats a byte in assembler hex notation (0FFH).
func Hex8(value byte) string {
	return hexWord(fmt.Sprintf("%02X", value))
}

// Hex16 formats a word in assembler hex notation (0C000H).
func Hex16(value uint16) string {
	return hexWord(fmt.Sprintf("%04X", value))
}

func hexWord(digits string) string {
	if digits[0] > '9' {
		digits = "0" + digits
	}
	return digits + "H"
}

// Format renders an instruction given its immediate bytes (low byte first).
func (inst *Instruction) Format(imm ...byte) (text string) {
	var data uint16
	switch len(imm) {
	case 1:
		data = uint16(imm[0])
	case 2:
		data = uint16(imm[0]) | uint16(imm[1])<<8
	}

	text = inst.Mnemonic
	switch inst.Pattern {
	case PATTERN_REG:
		text += " " + inst.Dst.String()
	case PATTERN_REG_REG:
		text += " " + inst.Dst.String() + "," + inst.Src.String()
	case PATTERN_REG_IMM8:
		text += " " + inst.Dst.String() + "," + Hex8(byte(data))
	case PATTERN_PAIR, PATTERN_PAIR_BD, PATTERN_PAIR_PSW:
		text += " " + inst.Pair.String()
	case PATTERN_PAIR_IMM16:
		text += " " + inst.Pair.String() + "," + Hex16(data)
	case PATTERN_IMM8:
		text += " " + Hex8(byte(data))
	case PATTERN_IMM16:
		text += " " + Hex16(data)
	case PATTERN_RST:
		text += fmt.Sprintf(" %d", inst.Vector)
	}

	return
}

// Disassemble renders the instruction at addr, reading bytes with read.
// Undefined opcodes are rendered as a DB pseudo-op of length 1.
func Disassemble(read func(addr uint16) byte, addr uint16) (text string, length int) {
	opcode := read(addr)
	inst, ok := Decode(opcode)
	if !ok {
		text = "DB " + Hex8(opcode)
		length = 1
		return
	}

	imm := make([]byte, inst.Pattern.Immediate())
	for n := range imm {
		imm[n] = read(addr + 1 + uint16(n))
	}

	text = inst.Format(imm...)
	length = inst.Length

	return
}
