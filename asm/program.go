package asm

import (
	"fmt"
	"iter"
	"strings"
)

const (
	IMAGE_SIZE = 0x10000 // Size of the 8085 address space.
)

// ByteKind describes what, if anything, was assembled into an address.
type ByteKind uint8

const (
	BYTE_NONE = ByteKind(0) // Not laid out by the program.
	BYTE_CODE = ByteKind(1) // Opcode or operand byte.
	BYTE_DATA = ByteKind(2) // Reserved by DS.
)

// Statement is a source line that occupies memory.
type Statement struct {
	LineNo   int    // Source line number.
	Address  uint16 // Address of the first byte.
	Text     string // Source text.
	Mnemonic string // Mnemonic or DS.
	Bytes    []byte // Encoded bytes; nil for DS.
	Length   int    // Bytes occupied, including DS reservations.
}

// Code returns true for instruction statements.
func (stmt *Statement) Code() bool {
	return stmt.Bytes != nil
}

// Warning is a non-fatal assembler diagnostic.
type Warning struct {
	LineNo int
	Text   string
}

func (w Warning) String() string {
	return f("line %d: warning: %v", w.LineNo, w.Text)
}

// Program is the output of a successful assembly.
type Program struct {
	Image       [IMAGE_SIZE]byte     // Memory image.
	Kind        [IMAGE_SIZE]ByteKind // Content of each address.
	Origin      uint16               // Initial PC.
	LineAddress map[int]uint16       // Instruction line to address.
	AddressLine map[uint16]int       // Instruction address to line.
	Symbols     *SymbolTable         // Labels and constants.
	Statements  []*Statement         // Memory occupying statements, in source order.
	Warnings    []Warning            // Non-fatal diagnostics.
}

// Code returns true if the address holds an assembled instruction byte.
func (prog *Program) Code(addr uint16) bool {
	return prog.Kind[addr] == BYTE_CODE
}

// Statement finds the statement occupying an address.
func (prog *Program) Statement(addr uint16) (stmt *Statement, ok bool) {
	for _, candidate := range prog.Statements {
		offset := addr - candidate.Address
		if int(offset) < candidate.Length {
			stmt, ok = candidate, true
			// Later statements win, matching the image.
		}
	}
	return
}

// Bytes iterates over every assembled code byte, in source order.
func (prog *Program) Bytes() iter.Seq2[uint16, byte] {
	return func(yield func(addr uint16, value byte) bool) {
		for _, stmt := range prog.Statements {
			for n, value := range stmt.Bytes {
				if !yield(stmt.Address+uint16(n), value) {
					return
				}
			}
		}
	}
}

// Listing renders an assembler listing: address, bytes and source.
func (prog *Program) Listing() string {
	var text strings.Builder
	for _, stmt := range prog.Statements {
		var hex []string
		for _, value := range stmt.Bytes {
			hex = append(hex, fmt.Sprintf("%02X", value))
		}
		if !stmt.Code() {
			hex = append(hex, fmt.Sprintf("(%d)", stmt.Length))
		}
		fmt.Fprintf(&text, "%04X  %-10s %5d  %s\n", stmt.Address, strings.Join(hex, " "), stmt.LineNo, stmt.Text)
	}
	return text.String()
}
