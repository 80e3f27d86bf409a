// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"log"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ezrec/i8085/asm"
	"github.com/ezrec/i8085/cpu"
	"github.com/ezrec/i8085/isa"
)

const (
	BATCH_DEFAULT = 4096 // Instructions per yield of a fast run.
)

// State of the run control state machine.
// Idle is ready to step or run. Halted is left only by Reset.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_IDLE    = State(0) // Idle
	STATE_RUNNING = State(1) // Running
	STATE_PAUSED  = State(2) // PausedAtBreakpoint
	STATE_HALTED  = State(3) // Halted
)

// LogEntry is an execution log line handed to the consumer.
type LogEntry struct {
	Address uint16 // Instruction address.
	Text    string // Disassembled instruction.
	Note    string // Event, if any: halted, breakpoint or the fault.
}

func (le LogEntry) String() (text string) {
	text = f("%04X  %v", le.Address, le.Text)
	if len(le.Note) != 0 {
		text += "  ; " + le.Note
	}
	return
}

// Snapshot is an immutable copy of the engine's observable state.
type Snapshot struct {
	State   State         // Run control state.
	Cpu     cpu.State     // Registers, flags and counters.
	LineNo  int           // Source line at PC, or 0.
	Calls   []cpu.Frame   // Subroutine calls in progress, innermost last.
	Fault   error         // Last runtime error, cleared by Reset.
	Elapsed time.Duration // Time spent executing since Reset.
}

// StepResult is the outcome of a single Step.
type StepResult struct {
	Snapshot
	Entry    LogEntry // Executed instruction.
	Executed bool     // False when the CPU was halted.
}

// Engine owns a CPU, its memory and the loaded program, and
// serializes all access to them.
type Engine struct {
	Verbose     bool // If set, enables verbose logging.
	Batch       int  // Instructions per yield of a fast run.
	ProtectCode bool // If set, WriteMemory refuses program code bytes.

	mutex       sync.Mutex
	cpu         *cpu.Cpu
	program     *asm.Program
	state       State
	fault       error
	elapsed     time.Duration
	breakpoints map[uint16]struct{}
	run         *Run
}

// NewEngine creates an engine with no program and cleared memory.
func NewEngine() (emu *Engine) {
	emu = &Engine{
		Batch:       BATCH_DEFAULT,
		cpu:         cpu.NewCpu(),
		breakpoints: map[uint16]struct{}{},
	}

	return
}

// Program returns the loaded program, or nil.
func (emu *Engine) Program() *asm.Program {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.program
}

// Assemble the source and load it. A run in progress is stopped first.
// On failure the previous program stays loaded.
func (emu *Engine) Assemble(source string) (prog *asm.Program, err error) {
	emu.stop()

	assembler := &asm.Assembler{Verbose: emu.Verbose}
	prog, err = assembler.Parse(strings.NewReader(source))
	if err != nil {
		return
	}

	emu.Load(prog)

	return
}

// Load a program and reset to its origin. A run in progress is stopped first.
func (emu *Engine) Load(prog *asm.Program) {
	emu.stop()

	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.program = prog
	emu.reset()
}

// Reset the CPU to the program origin. Breakpoints are preserved.
func (emu *Engine) Reset() {
	emu.stop()

	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.reset()
}

func (emu *Engine) reset() {
	emu.cpu.Verbose = emu.Verbose

	if emu.program != nil {
		emu.cpu.Reset(&emu.program.Image, emu.program.Origin)
	} else {
		emu.cpu.Reset(nil, 0)
	}

	emu.state = STATE_IDLE
	emu.fault = nil
	emu.elapsed = 0

	if emu.Verbose {
		log.Printf("emulator: reset, PC %04X", emu.cpu.PC)
	}
}

// stop cancels any run in progress and waits for it to finish.
func (emu *Engine) stop() {
	emu.mutex.Lock()
	run := emu.run
	emu.mutex.Unlock()

	if run != nil {
		run.Stop()
		run.Wait()
	}
}

// lineNo returns the source line for an address, or 0.
func (emu *Engine) lineNo(addr uint16) int {
	if emu.program == nil {
		return 0
	}
	return emu.program.AddressLine[addr]
}

func (emu *Engine) snapshot() Snapshot {
	return Snapshot{
		State:   emu.state,
		Cpu:     emu.cpu.State,
		LineNo:  emu.lineNo(emu.cpu.PC),
		Calls:   emu.cpu.Calls.Frames(),
		Fault:   emu.fault,
		Elapsed: emu.elapsed,
	}
}

// Snapshot returns a copy of the current engine state.
func (emu *Engine) Snapshot() Snapshot {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.snapshot()
}

// execute a single instruction, updating the state machine.
// A runtime error is recorded as the fault and leaves the engine Idle.
func (emu *Engine) execute() (entry LogEntry, err error) {
	pc := emu.cpu.PC

	trace, err := emu.cpu.Step()
	if err != nil {
		err = &ErrRuntime{LineNo: emu.lineNo(pc), Err: err}
		emu.fault = err
		emu.state = STATE_IDLE
		text, _ := emu.disassemble(pc)
		entry = LogEntry{Address: pc, Text: text, Note: err.Error()}
		if emu.Verbose {
			log.Printf("emulator: %v", err)
		}
		return
	}

	entry = LogEntry{Address: trace.Address, Text: trace.Text}
	if trace.Halted {
		entry.Note = f("halted")
		emu.state = STATE_HALTED
		if emu.Verbose {
			log.Printf("emulator: halted at %04X after %d instructions", trace.Address, emu.cpu.Count)
		}
	}

	return
}

// Step executes exactly one instruction from Idle or PausedAtBreakpoint.
// Stepping a halted CPU does nothing.
func (emu *Engine) Step() (result StepResult, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	switch emu.state {
	case STATE_RUNNING:
		err = ErrRunning
		return
	case STATE_HALTED:
		result.Snapshot = emu.snapshot()
		return
	}

	emu.cpu.Verbose = emu.Verbose
	emu.state = STATE_IDLE

	start := time.Now()
	result.Entry, err = emu.execute()
	emu.elapsed += time.Since(start)

	result.Executed = err == nil
	result.Snapshot = emu.snapshot()

	return
}

// ReadMemory returns a copy of memory from start to end inclusive,
// wrapping at the top of the address space.
func (emu *Engine) ReadMemory(start, end uint16) (data []byte) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	data = make([]byte, int(end-start)+1)
	for n := range data {
		data[n] = emu.cpu.Read(start + uint16(n))
	}

	return
}

// WriteMemory writes a byte of memory. It is refused while running,
// and for program code when ProtectCode is set.
func (emu *Engine) WriteMemory(addr uint16, value byte) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if emu.state == STATE_RUNNING {
		err = ErrRunning
		return
	}

	if emu.ProtectCode && emu.program != nil && emu.program.Code(addr) {
		err = errors.Join(ErrProtected, errors.New(isa.Hex16(addr)))
		return
	}

	emu.cpu.Write(addr, value)

	return
}

func (emu *Engine) disassemble(addr uint16) (text string, length int) {
	return isa.Disassemble(emu.cpu.Read, addr)
}

// Disassemble the instruction in memory at an address.
func (emu *Engine) Disassemble(addr uint16) (text string, length int) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.disassemble(addr)
}

// ToggleBreakpoint sets or clears a breakpoint, returning true if it is now set.
func (emu *Engine) ToggleBreakpoint(addr uint16) (set bool) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	_, set = emu.breakpoints[addr]
	if set {
		delete(emu.breakpoints, addr)
	} else {
		emu.breakpoints[addr] = struct{}{}
	}
	set = !set

	return
}

// ToggleBreakpointLine toggles the breakpoint on the instruction assembled
// from a source line.
func (emu *Engine) ToggleBreakpointLine(lineno int) (addr uint16, set bool, err error) {
	emu.mutex.Lock()
	var ok bool
	if emu.program != nil {
		addr, ok = emu.program.LineAddress[lineno]
	}
	emu.mutex.Unlock()

	if !ok {
		err = errors.Join(ErrNoInstruction, errors.New(f("line %d", lineno)))
		return
	}

	set = emu.ToggleBreakpoint(addr)

	return
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (emu *Engine) Breakpoints() []uint16 {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return slices.Sorted(maps.Keys(emu.breakpoints))
}

// ClearBreakpoints removes every breakpoint.
func (emu *Engine) ClearBreakpoints() {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	clear(emu.breakpoints)
}
