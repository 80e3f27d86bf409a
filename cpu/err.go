package cpu

import (
	"errors"

	"github.com/ezrec/i8085/isa"
	"github.com/ezrec/i8085/translate"
)

var f = translate.From

var (
	// ErrRuntime classifies every fault raised during execution.
	ErrRuntime = errors.New(f("runtime error"))

	ErrUnsupported = errors.New(f("unsupported instruction"))
	ErrUndefined   = errors.New(f("undefined opcode"))
	ErrHalted      = errors.New(f("cpu halted"))
)

// ErrInstruction is a runtime fault at a specific instruction.
// It matches both ErrRuntime and its cause with errors.Is.
// An undefined opcode is also an unsupported instruction.
type ErrInstruction struct {
	Address uint16
	Opcode  byte
	Err     error
}

func (err ErrInstruction) Error() string {
	if err.Err == ErrUndefined {
		return f("%v: %v, %v 0x%02X at %v", ErrRuntime, ErrUnsupported, err.Err, err.Opcode, isa.Hex16(err.Address))
	}
	return f("%v: %v 0x%02X at %v", ErrRuntime, err.Err, err.Opcode, isa.Hex16(err.Address))
}

func (err ErrInstruction) Unwrap() []error {
	if err.Err == ErrUndefined {
		return []error{ErrRuntime, ErrUnsupported, err.Err}
	}
	return []error{ErrRuntime, err.Err}
}
