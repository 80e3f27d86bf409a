package asm

import (
	"errors"
	"strings"

	"github.com/ezrec/i8085/translate"
)

var f = translate.From

var (
	// Error classes. Every ErrLine matches exactly one of these.
	ErrLex       = errors.New(f("lex error"))
	ErrSyntax    = errors.New(f("syntax error"))
	ErrSymbol    = errors.New(f("symbol error"))
	ErrRange     = errors.New(f("range error"))
	ErrDirective = errors.New(f("directive error"))

	// Lexer errors
	ErrLabelEmpty       = errors.New(f("label name missing"))
	ErrLabelInvalid     = errors.New(f("label invalid"))
	ErrLabelReserved    = errors.New(f("label is a register name"))
	ErrMnemonicInvalid  = errors.New(f("mnemonic invalid"))
	ErrOperandEmpty     = errors.New(f("operand empty"))
	ErrCharUnterminated = errors.New(f("character literal unterminated"))

	// Syntax errors
	ErrMnemonicUnknown = errors.New(f("unknown mnemonic"))
	ErrOperandCount    = errors.New(f("wrong operand count"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrPairInvalid     = errors.New(f("register pair invalid"))
	ErrMovMemory       = errors.New(f("MOV M,M is not an instruction"))
	ErrExpression      = errors.New(f("expression invalid"))
	ErrRegisterValue   = errors.New(f("register used as a value"))

	// Directive errors
	ErrEquateName  = errors.New(f("EQU requires a name"))
	ErrStorageSize = errors.New(f("DS size must not be negative"))
	ErrOrigin      = errors.New(f("ORG address invalid"))
)

// ErrUndefined is a reference to a symbol that is not defined.
type ErrUndefined string

func (eu ErrUndefined) Error() string {
	return f("undefined symbol %v", string(eu))
}

func (eu ErrUndefined) Is(err error) (ok bool) {
	_, ok = err.(ErrUndefined)
	return
}

// ErrForward is a reference to a constant defined on a later line.
type ErrForward string

func (ef ErrForward) Error() string {
	return f("constant %v used before its definition", string(ef))
}

func (ef ErrForward) Is(err error) (ok bool) {
	_, ok = err.(ErrForward)
	return
}

// ErrDuplicate is a second definition of a symbol.
type ErrDuplicate struct {
	Name   string
	LineNo int // Line of the first definition.
}

func (ed ErrDuplicate) Error() string {
	return f("symbol %v already defined on line %d", ed.Name, ed.LineNo)
}

func (ed ErrDuplicate) Is(err error) (ok bool) {
	_, ok = err.(ErrDuplicate)
	return
}

// ErrOutOfRange is an operand value that does not fit its field.
type ErrOutOfRange struct {
	Value    int64
	Min, Max int64
}

func (er ErrOutOfRange) Error() string {
	return f("value %d out of range %d..%d", er.Value, er.Min, er.Max)
}

func (er ErrOutOfRange) Is(err error) (ok bool) {
	_, ok = err.(ErrOutOfRange)
	return
}

// ErrNumber is a malformed numeric literal.
type ErrNumber string

func (en ErrNumber) Error() string {
	return f("'%v' is not a number", string(en))
}

func (en ErrNumber) Is(err error) (ok bool) {
	_, ok = err.(ErrNumber)
	return
}

// ErrLine is an assembly error on a single source line.
type ErrLine struct {
	LineNo int    // Line number, starting at 1.
	Line   string // Source text of the line.
	Class  error  // One of ErrLex, ErrSyntax, ErrSymbol, ErrRange, ErrDirective.
	Err    error  // Cause.
}

func (err *ErrLine) Error() string {
	return f("line %d: %v: %v", err.LineNo, err.Class, err.Err)
}

func (err *ErrLine) Unwrap() []error {
	return []error{err.Class, err.Err}
}

// ErrorList is the complete, line ordered, set of errors from an assembly.
type ErrorList []*ErrLine

func (el ErrorList) Error() string {
	text := make([]string, len(el))
	for n, err := range el {
		text[n] = err.Error()
	}
	return strings.Join(text, "\n")
}

func (el ErrorList) Unwrap() []error {
	errs := make([]error, len(el))
	for n, err := range el {
		errs[n] = err
	}
	return errs
}

// symbolic classifies an evaluation error: symbol resolution failures are
// ErrSymbol, anything else is the fallback class.
func symbolic(err error, fallback error) error {
	if errors.Is(err, ErrUndefined("")) || errors.Is(err, ErrForward("")) {
		return ErrSymbol
	}
	if errors.Is(err, ErrOutOfRange{}) {
		return ErrRange
	}
	return fallback
}
