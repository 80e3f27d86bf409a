package emulator

import (
	"errors"

	"github.com/ezrec/i8085/translate"
)

var f = translate.From

var (
	ErrRunning       = errors.New(f("engine is running"))
	ErrProtected     = errors.New(f("address holds program code"))
	ErrNoInstruction = errors.New(f("no instruction on line"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int // Source line, or 0 if the address has none.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return err.Err.Error()
	}
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
