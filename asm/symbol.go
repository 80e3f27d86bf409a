package asm

import (
	"iter"

	"github.com/ezrec/i8085/internal"
)

// SymbolKind distinguishes labels from EQU constants.
// A label is the address of a statement, a constant the value of an EQU.
type SymbolKind int

//go:generate go tool stringer -linecomment -type=SymbolKind
const (
	SYMBOL_LABEL    = SymbolKind(0) // label
	SYMBOL_CONSTANT = SymbolKind(1) // constant
)

// Symbol is a named value.
type Symbol struct {
	Name   string
	Value  int64
	Kind   SymbolKind
	LineNo int // Line of the definition.
}

// SymbolTable maps names to labels and constants.
// Names are unique across both kinds.
type SymbolTable struct {
	labels    map[string]*Symbol
	constants map[string]*Symbol
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		labels:    map[string]*Symbol{},
		constants: map[string]*Symbol{},
	}
}

// Define adds a symbol. Redefining a name is an ErrDuplicate.
func (st *SymbolTable) Define(sym Symbol) (err error) {
	if prior, ok := st.Lookup(sym.Name); ok {
		err = ErrDuplicate{Name: sym.Name, LineNo: prior.LineNo}
		return
	}

	if sym.Kind == SYMBOL_CONSTANT {
		st.constants[sym.Name] = &sym
	} else {
		st.labels[sym.Name] = &sym
	}

	return
}

// Lookup finds a symbol by its upper case name.
func (st *SymbolTable) Lookup(name string) (sym *Symbol, ok bool) {
	if sym, ok = st.labels[name]; ok {
		return
	}
	sym, ok = st.constants[name]
	return
}

// Len is the number of symbols defined.
func (st *SymbolTable) Len() int {
	return len(st.labels) + len(st.constants)
}

// All iterates over the labels, then the constants, each sorted by name.
func (st *SymbolTable) All() iter.Seq2[string, *Symbol] {
	return internal.IterSeq2Concat(
		internal.SortedSeq2(st.labels),
		internal.SortedSeq2(st.constants),
	)
}

// Resolve returns the value of a symbol referenced from a line.
// Constants must be defined on an earlier line; labels may be referenced
// from anywhere.
func (st *SymbolTable) Resolve(name string, lineno int) (value int64, err error) {
	sym, ok := st.Lookup(name)
	if !ok {
		err = ErrUndefined(name)
		return
	}

	if sym.Kind == SYMBOL_CONSTANT && sym.LineNo >= lineno {
		err = ErrForward(name)
		return
	}

	value = sym.Value
	return
}
