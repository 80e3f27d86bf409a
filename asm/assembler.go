// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/ezrec/i8085/isa"
)

// Directives.
const (
	DIRECTIVE_ORG = "ORG"
	DIRECTIVE_EQU = "EQU"
	DIRECTIVE_DS  = "DS"
	DIRECTIVE_END = "END"
)

// statement is the pass 1 record of a line.
type statement struct {
	*Line
	address uint16
	length  int
	kind    ByteKind
	desc    *isa.Descriptor
	bytes   []byte
	failed  bool // Error already reported; pass 2 skips the line.
}

// Assembler is a two pass assembler for the Intel 8085.
type Assembler struct {
	Verbose bool         // If set, verbosely logs the assembler actions.
	Symbols *SymbolTable // Symbols from the last assembly.

	statements []*statement
	errs       ErrorList
	warnings   []Warning
}

// Assemble assembles source text into a program.
// On failure, err is an ErrorList of every error found.
func Assemble(source string) (prog *Program, err error) {
	asm := &Assembler{}
	prog, err = asm.Parse(strings.NewReader(source))
	return
}

// fail records an error on a line.
func (asm *Assembler) fail(stmt *statement, class error, err error) {
	if asm.Verbose {
		log.Printf("asm: %d: %v: %v", stmt.LineNo, class, err)
	}
	asm.errs = append(asm.errs, &ErrLine{LineNo: stmt.LineNo, Line: stmt.Text, Class: class, Err: err})
	stmt.failed = true
}

// Parse assembles an input stream into a Program.
// On failure, prog is nil and err is an ErrorList.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	asm.Symbols = NewSymbolTable()
	asm.statements = nil
	asm.errs = nil
	asm.warnings = nil

	scanner := bufio.NewScanner(input)
	scanner.Buffer(nil, IMAGE_SIZE)

	var lineno int
	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line, lex_err := Lex(lineno, text)
		stmt := &statement{Line: line}
		asm.statements = append(asm.statements, stmt)
		if lex_err != nil {
			asm.fail(stmt, ErrLex, lex_err)
		}
	}
	err = scanner.Err()
	if err != nil {
		// A line too long to scan ends the input.
		asm.errs = append(asm.errs, &ErrLine{LineNo: lineno + 1, Class: ErrLex, Err: err})
		err = asm.errs
		return
	}

	// Pass 2 always runs so every error surfaces, but the image is only
	// built when both passes are clean.
	origin := asm.pass1()
	asm.pass2()

	if len(asm.errs) > 0 {
		slices.SortStableFunc(asm.errs, func(a, b *ErrLine) int {
			return a.LineNo - b.LineNo
		})
		err = asm.errs
		return
	}

	prog = asm.program(origin)

	return
}

// pass1 assigns addresses, defines labels and evaluates directives.
// Returns the program origin.
func (asm *Assembler) pass1() (origin uint16) {
	var covered [IMAGE_SIZE]bool
	var addr uint16
	var seenOrg, seenCode, warned bool

	layout := func(stmt *statement) {
		for n := range stmt.length {
			at := stmt.address + uint16(n)
			if covered[at] && !warned {
				warned = true
				asm.warnings = append(asm.warnings, Warning{
					LineNo: stmt.LineNo,
					Text:   f("ORG region overlaps bytes already assembled at %v", isa.Hex16(at)),
				})
			}
			covered[at] = true
		}
	}

	for _, stmt := range asm.statements {
		if stmt.failed || stmt.Empty() {
			continue
		}

		stmt.address = addr
		eval := &Evaluator{Symbols: asm.Symbols, LineNo: stmt.LineNo, Here: addr}

		if len(stmt.Label) > 0 && stmt.Mnemonic != DIRECTIVE_EQU {
			err := asm.Symbols.Define(Symbol{Name: stmt.Label, Value: int64(addr), Kind: SYMBOL_LABEL, LineNo: stmt.LineNo})
			if err != nil {
				asm.fail(stmt, ErrSymbol, err)
				continue
			}
		}

		switch stmt.Mnemonic {
		case "":
			// Label only.
		case DIRECTIVE_EQU:
			if len(stmt.Label) == 0 {
				asm.fail(stmt, ErrDirective, ErrEquateName)
				continue
			}
			value, err := asm.directive(stmt, eval)
			if err != nil {
				continue
			}
			err = asm.Symbols.Define(Symbol{Name: stmt.Label, Value: value, Kind: SYMBOL_CONSTANT, LineNo: stmt.LineNo})
			if err != nil {
				asm.fail(stmt, ErrSymbol, err)
				continue
			}
		case DIRECTIVE_ORG:
			value, err := asm.directive(stmt, eval)
			if err != nil {
				continue
			}
			if value < 0 || value >= IMAGE_SIZE {
				asm.fail(stmt, ErrDirective, ErrOrigin)
				continue
			}
			addr = uint16(value)
			if !seenOrg && !seenCode {
				origin = addr
			}
			seenOrg = true
			warned = false
		case DIRECTIVE_DS:
			value, err := asm.directive(stmt, eval)
			if err != nil {
				continue
			}
			if value < 0 || value > IMAGE_SIZE {
				asm.fail(stmt, ErrDirective, ErrStorageSize)
				continue
			}
			stmt.length = int(value)
			stmt.kind = BYTE_DATA
			layout(stmt)
			addr += uint16(stmt.length)
		case DIRECTIVE_END:
			if len(stmt.Operands) > 0 {
				asm.fail(stmt, ErrDirective, ErrOperandCount)
			}
		default:
			desc, ok := isa.Lookup(stmt.Mnemonic)
			if !ok {
				asm.fail(stmt, ErrSyntax, ErrMnemonicUnknown)
				continue
			}
			if len(stmt.Operands) != desc.Pattern.Operands() {
				asm.fail(stmt, ErrSyntax, ErrOperandCount)
				continue
			}
			stmt.desc = desc
			stmt.length = desc.Length
			stmt.kind = BYTE_CODE
			seenCode = true
			layout(stmt)
			addr += uint16(stmt.length)
		}
	}

	return
}

// directive evaluates the single operand of ORG, EQU or DS.
func (asm *Assembler) directive(stmt *statement, eval *Evaluator) (value int64, err error) {
	if len(stmt.Operands) != 1 {
		err = ErrOperandCount
		asm.fail(stmt, ErrDirective, err)
		return
	}

	value, err = eval.Evaluate(stmt.Operands[0])
	if err != nil {
		asm.fail(stmt, ErrDirective, err)
		return
	}

	if asm.Verbose {
		log.Printf("asm: %d: %v %v = %d", stmt.LineNo, stmt.Label, stmt.Mnemonic, value)
	}

	return
}

// pass2 encodes every instruction with the complete symbol table.
func (asm *Assembler) pass2() {
	for _, stmt := range asm.statements {
		if stmt.failed || stmt.desc == nil {
			continue
		}

		eval := &Evaluator{Symbols: asm.Symbols, LineNo: stmt.LineNo, Here: stmt.address}
		code, class, err := encode(stmt.desc, stmt.Operands, eval)
		if err != nil {
			asm.fail(stmt, class, err)
			continue
		}
		stmt.bytes = code
	}
}

// operand8 evaluates an 8-bit operand: -128..255, folded to a byte.
func operand8(eval *Evaluator, expr string) (value byte, class error, err error) {
	v, err := eval.Evaluate(expr)
	if err != nil {
		class = symbolic(err, ErrSyntax)
		return
	}
	if v < -128 || v > 255 {
		class, err = ErrRange, ErrOutOfRange{Value: v, Min: -128, Max: 255}
		return
	}
	value = byte(v)
	return
}

// operand16 evaluates a 16-bit operand: 0..65535.
func operand16(eval *Evaluator, expr string) (value uint16, class error, err error) {
	v, err := eval.Evaluate(expr)
	if err != nil {
		class = symbolic(err, ErrSyntax)
		return
	}
	if v < 0 || v > 0xffff {
		class, err = ErrRange, ErrOutOfRange{Value: v, Min: 0, Max: 0xffff}
		return
	}
	value = uint16(v)
	return
}

// encode produces the bytes of an instruction from its operands.
func encode(desc *isa.Descriptor, operands []string, eval *Evaluator) (code []byte, class error, err error) {
	class = ErrSyntax

	register := func(n int) (reg isa.Register, ok bool) {
		reg, ok = isa.ParseRegister(operands[n])
		if !ok {
			err = ErrRegisterInvalid
		}
		return
	}

	pair := func(n int, allowed ...isa.Pair) (p isa.Pair, ok bool) {
		p, ok = isa.ParsePair(operands[n])
		if !ok || !slices.Contains(allowed, p) {
			ok = false
			err = ErrPairInvalid
		}
		return
	}

	switch desc.Pattern {
	case isa.PATTERN_NONE:
		code = []byte{desc.Encode()}
	case isa.PATTERN_REG:
		reg, ok := register(0)
		if !ok {
			return
		}
		code = []byte{desc.Encode(int(reg))}
	case isa.PATTERN_REG_REG:
		dst, ok := register(0)
		if !ok {
			return
		}
		src, ok := register(1)
		if !ok {
			return
		}
		if dst == isa.REG_M && src == isa.REG_M {
			err = ErrMovMemory
			return
		}
		code = []byte{desc.Encode(int(dst), int(src))}
	case isa.PATTERN_REG_IMM8:
		reg, ok := register(0)
		if !ok {
			return
		}
		var imm byte
		imm, class, err = operand8(eval, operands[1])
		if err != nil {
			return
		}
		code = []byte{desc.Encode(int(reg)), imm}
	case isa.PATTERN_PAIR:
		p, ok := pair(0, isa.PAIR_B, isa.PAIR_D, isa.PAIR_H, isa.PAIR_SP)
		if !ok {
			return
		}
		code = []byte{desc.Encode(p.Code())}
	case isa.PATTERN_PAIR_IMM16:
		p, ok := pair(0, isa.PAIR_B, isa.PAIR_D, isa.PAIR_H, isa.PAIR_SP)
		if !ok {
			return
		}
		var imm uint16
		imm, class, err = operand16(eval, operands[1])
		if err != nil {
			return
		}
		code = []byte{desc.Encode(p.Code()), byte(imm), byte(imm >> 8)}
	case isa.PATTERN_PAIR_BD:
		p, ok := pair(0, isa.PAIR_B, isa.PAIR_D)
		if !ok {
			return
		}
		code = []byte{desc.Encode(p.Code())}
	case isa.PATTERN_PAIR_PSW:
		p, ok := pair(0, isa.PAIR_B, isa.PAIR_D, isa.PAIR_H, isa.PAIR_PSW)
		if !ok {
			return
		}
		code = []byte{desc.Encode(p.Code())}
	case isa.PATTERN_IMM8:
		var imm byte
		imm, class, err = operand8(eval, operands[0])
		if err != nil {
			return
		}
		code = []byte{desc.Opcode, imm}
	case isa.PATTERN_IMM16:
		var imm uint16
		imm, class, err = operand16(eval, operands[0])
		if err != nil {
			return
		}
		code = []byte{desc.Opcode, byte(imm), byte(imm >> 8)}
	case isa.PATTERN_RST:
		var vector int64
		vector, err = eval.Evaluate(operands[0])
		if err != nil {
			class = symbolic(err, ErrSyntax)
			return
		}
		if vector < 0 || vector > 7 {
			class, err = ErrRange, ErrOutOfRange{Value: vector, Min: 0, Max: 7}
			return
		}
		code = []byte{desc.Encode(int(vector))}
	}

	return
}

// program builds the output of a clean assembly.
func (asm *Assembler) program(origin uint16) (prog *Program) {
	prog = &Program{
		Origin:      origin,
		LineAddress: map[int]uint16{},
		AddressLine: map[uint16]int{},
		Symbols:     asm.Symbols,
		Warnings:    asm.warnings,
	}

	for _, stmt := range asm.statements {
		if stmt.kind == BYTE_NONE {
			continue
		}

		prog.Statements = append(prog.Statements, &Statement{
			LineNo:   stmt.LineNo,
			Address:  stmt.address,
			Text:     stmt.Text,
			Mnemonic: stmt.Mnemonic,
			Bytes:    stmt.bytes,
			Length:   stmt.length,
		})

		for n := range stmt.length {
			at := stmt.address + uint16(n)
			prog.Kind[at] = stmt.kind
			if stmt.kind == BYTE_CODE {
				prog.Image[at] = stmt.bytes[n]
			} else {
				// DS regions are zero filled, even over earlier code.
				prog.Image[at] = 0
			}
		}

		if stmt.kind == BYTE_CODE {
			prog.LineAddress[stmt.LineNo] = stmt.address
			prog.AddressLine[stmt.address] = stmt.LineNo
		}
	}

	if asm.Verbose {
		for _, warning := range prog.Warnings {
			log.Printf("asm: %v", warning)
		}
	}

	return
}
