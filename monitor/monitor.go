// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/ezrec/i8085/asm"
	"github.com/ezrec/i8085/emulator"
	"github.com/ezrec/i8085/translate"
)

var f = translate.From

const (
	PAGE_SIZE   = 128 // Bytes per memory dump page.
	DIS_COUNT   = 8   // Instructions per disassembly.
	PROMPT_TEXT = "8085> "
)

var (
	ErrQuit      = errors.New(f("quit"))
	ErrUsage     = errors.New(f("usage"))
	ErrNoProgram = errors.New(f("no program loaded"))
)

// Monitor is an interactive command interpreter driving an engine.
type Monitor struct {
	Verbose  bool // If set, enables verbose logging.
	PageSize int  // Bytes per memory dump page.

	*emulator.Engine // Engine under control.

	mutex    sync.Mutex
	output   io.Writer
	run      *emulator.Run
	lastLine string
}

// NewMonitor creates a monitor for an engine.
func NewMonitor(engine *emulator.Engine) (mon *Monitor) {
	mon = &Monitor{
		PageSize: PAGE_SIZE,
		Engine:   engine,
		output:   io.Discard,
	}

	return
}

func (mon *Monitor) printf(format string, args ...any) {
	mon.mutex.Lock()
	defer mon.mutex.Unlock()

	fmt.Fprint(mon.output, f(format, args...))
}

func (mon *Monitor) println(text string) {
	mon.mutex.Lock()
	defer mon.mutex.Unlock()

	fmt.Fprintln(mon.output, text)
}

// Serve reads commands from the input until EOF or quit, writing results
// to the output. A prompt is written before each command if interactive.
func (mon *Monitor) Serve(input io.Reader, output io.Writer, interactive bool) (err error) {
	mon.output = output

	scanner := bufio.NewScanner(input)
	err = mon.serve(func() (line string, err error) {
		if interactive {
			mon.printf(PROMPT_TEXT)
		}
		if !scanner.Scan() {
			err = scanner.Err()
			if err == nil {
				err = io.EOF
			}
			return
		}
		line = scanner.Text()
		return
	})

	return
}

// serve executes lines until EOF or quit. Command errors are reported
// and do not end the session.
func (mon *Monitor) serve(readLine func() (string, error)) (err error) {
	defer mon.stop()

	for {
		var line string
		line, err = readLine()
		if err == io.EOF {
			err = nil
			return
		}
		if err != nil {
			return
		}

		err = mon.Execute(line)
		if errors.Is(err, ErrQuit) {
			err = nil
			return
		}
		if err != nil {
			mon.printf("%v\n", err)
			err = nil
		}
	}
}

// Execute a single command line. An empty line repeats the previous
// step, or continues the previous dump or disassembly.
func (mon *Monitor) Execute(line string) (err error) {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		line = mon.lastLine
		if len(line) == 0 {
			return
		}
	}

	word, args, _ := strings.Cut(line, " ")
	cmd, ok := lookup(word)
	if !ok {
		err = errors.New(f("unknown command %q, try 'help'", word))
		return
	}

	if mon.Verbose {
		log.Printf("monitor: %v %v", cmd.Name, args)
	}

	mon.lastLine = ""
	if cmd.Repeat {
		mon.lastLine = line
	}

	err = cmd.Handler(mon, strings.Fields(args))
	if errors.Is(err, ErrUsage) {
		err = errors.New(f("usage: %v", cmd.Usage))
	}

	return
}

// Address evaluates an address expression against the program symbols.
// '$' is the current PC.
func (mon *Monitor) Address(expr string) (addr uint16, err error) {
	eval := &asm.Evaluator{
		Symbols: asm.NewSymbolTable(),
		LineNo:  math.MaxInt,
		Here:    mon.Snapshot().Cpu.PC,
	}
	if prog := mon.Program(); prog != nil {
		eval.Symbols = prog.Symbols
	}

	value, err := eval.Evaluate(expr)
	if err != nil {
		return
	}

	if value < 0 || value > math.MaxUint16 {
		err = asm.ErrOutOfRange{Value: value, Min: 0, Max: math.MaxUint16}
		return
	}

	addr = uint16(value)
	return
}

// Byte evaluates a byte value expression. Negative values fold to a byte.
func (mon *Monitor) Byte(expr string) (value byte, err error) {
	eval := &asm.Evaluator{Symbols: asm.NewSymbolTable(), LineNo: math.MaxInt}
	if prog := mon.Program(); prog != nil {
		eval.Symbols = prog.Symbols
	}

	word, err := eval.Evaluate(expr)
	if err != nil {
		return
	}

	if word < math.MinInt8 || word > math.MaxUint8 {
		err = asm.ErrOutOfRange{Value: word, Min: math.MinInt8, Max: math.MaxUint8}
		return
	}

	value = byte(word)
	return
}

// start a run in the background, reporting its log as it goes.
func (mon *Monitor) start(fast bool) (err error) {
	mon.stop()

	opts := emulator.RunOptions{
		Fast: fast,
		OnYield: func(update emulator.Update) {
			for _, entry := range update.Log {
				mon.println(entry.String())
			}
		},
	}

	run, err := mon.Run(context.Background(), opts)
	if err != nil {
		return
	}

	mon.run = run
	return
}

// wait for the background run, then report where it ended.
func (mon *Monitor) wait() {
	if mon.run == nil {
		return
	}

	result := mon.run.Wait()
	mon.run = nil

	mon.printf("%v at %04X, %d instructions\n", result.State, result.Cpu.PC, result.Executed)
	if result.Err != nil {
		mon.printf("%v\n", result.Err)
	}
}

// stop the background run, if any.
func (mon *Monitor) stop() {
	if mon.run == nil {
		return
	}

	mon.run.Stop()
	mon.wait()
}
