package emulator

import (
	"context"
	"log"
	"time"
)

// RunOptions selects the style of a run.
type RunOptions struct {
	// Fast runs yield every Batch instructions and log only halts,
	// breakpoints and faults. Otherwise every instruction is yielded
	// and logged.
	Fast bool

	// OnYield, if set, is called from the run goroutine at every yield,
	// without the engine lock held. It must not call Reset, Load or
	// Assemble, which wait for the run to finish.
	OnYield func(update Update)
}

// Update is delivered at each yield of a run.
type Update struct {
	Snapshot
	Log []LogEntry
}

// RunResult is the outcome of a finished run.
type RunResult struct {
	Snapshot
	Executed int   // Instructions executed by this run.
	Err      error // Runtime error that ended the run, if any.
}

// Run is a handle to a run in progress.
type Run struct {
	cancel context.CancelFunc
	done   chan struct{}
	result RunResult
}

// Stop requests the run to end. The engine returns to Idle.
func (run *Run) Stop() {
	run.cancel()
}

// Done is closed when the run has finished.
func (run *Run) Done() <-chan struct{} {
	return run.done
}

// Wait for the run to finish and return its result.
func (run *Run) Wait() RunResult {
	<-run.done
	return run.result
}

// Run executes instructions on a separate goroutine until a breakpoint,
// HLT, a runtime error, Stop, or cancellation of the context.
//
// Before each fetch the PC is checked against the breakpoints; when
// resuming from PausedAtBreakpoint the first instruction is executed
// without the check. Running a halted CPU finishes immediately.
func (emu *Engine) Run(ctx context.Context, opts RunOptions) (run *Run, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if emu.state == STATE_RUNNING {
		err = ErrRunning
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	run = &Run{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if emu.state == STATE_HALTED {
		run.result.Snapshot = emu.snapshot()
		cancel()
		close(run.done)
		return
	}

	batch := 1
	if opts.Fast {
		batch = emu.Batch
		if batch <= 0 {
			batch = BATCH_DEFAULT
		}
	}

	resume := emu.state == STATE_PAUSED
	emu.cpu.Verbose = emu.Verbose
	emu.state = STATE_RUNNING
	emu.run = run

	if emu.Verbose {
		log.Printf("emulator: run from %04X, batch %d", emu.cpu.PC, batch)
	}

	go emu.loop(ctx, run, opts, batch, resume)

	return
}

func (emu *Engine) loop(ctx context.Context, run *Run, opts RunOptions, batch int, resume bool) {
	defer close(run.done)
	defer run.cancel()

	for {
		var entries []LogEntry

		emu.mutex.Lock()
		start := time.Now()
		for range batch {
			if ctx.Err() != nil {
				break
			}

			pc := emu.cpu.PC
			if _, ok := emu.breakpoints[pc]; ok && !resume {
				emu.state = STATE_PAUSED
				text, _ := emu.disassemble(pc)
				entries = append(entries, LogEntry{Address: pc, Text: text, Note: f("breakpoint")})
				break
			}
			resume = false

			entry, err := emu.execute()
			if err != nil {
				run.result.Err = err
				entries = append(entries, entry)
				break
			}
			run.result.Executed++

			if !opts.Fast || len(entry.Note) != 0 {
				entries = append(entries, entry)
			}

			if emu.state != STATE_RUNNING {
				break
			}
		}
		emu.elapsed += time.Since(start)

		if emu.state == STATE_RUNNING && ctx.Err() != nil {
			emu.state = STATE_IDLE
			if emu.Verbose {
				log.Printf("emulator: stopped at %04X", emu.cpu.PC)
			}
		}

		finished := emu.state != STATE_RUNNING
		snapshot := emu.snapshot()
		if finished {
			emu.run = nil
			run.result.Snapshot = snapshot
		}
		emu.mutex.Unlock()

		if opts.OnYield != nil {
			opts.OnYield(Update{Snapshot: snapshot, Log: entries})
		}

		if finished {
			return
		}
	}
}
