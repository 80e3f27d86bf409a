package webui

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/ezrec/i8085/asm"
	"github.com/ezrec/i8085/emulator"
	"github.com/ezrec/i8085/translate"
)

var f = translate.From

var (
	ErrCommand = errors.New(f("unknown command"))
	ErrArgs    = errors.New(f("command arguments invalid"))
)

type AssembleArgs struct {
	Source string `json:"source"`
}

type RunArgs struct {
	Fast bool `json:"fast"`
}

type BreakArgs struct {
	Address *uint16 `json:"address,omitempty"`
	Line    *int    `json:"line,omitempty"`
}

type MemoryArgs struct {
	Start uint16 `json:"start"`
	End   uint16 `json:"end"`
}

type WriteArgs struct {
	Address uint16 `json:"address"`
	Value   byte   `json:"value"`
}

type executor func(s *Server, k *Socket, args json.RawMessage) error

var executors = map[string]executor{
	"assemble": cmdAssemble,
	"step":     cmdStep,
	"run":      cmdRun,
	"stop":     cmdStop,
	"reset":    cmdReset,
	"break":    cmdBreak,
	"clear":    cmdClear,
	"memory":   cmdMemory,
	"write":    cmdWrite,
}

// execute a browser command.
func (s *Server) execute(k *Socket, req Request) (err error) {
	exec, ok := executors[req.Command]
	if !ok {
		err = errors.Join(ErrCommand, errors.New(req.Command))
		return
	}

	if s.Verbose {
		log.Printf("webui: %v %s", req.Command, req.Args)
	}

	err = exec(s, k, req.Args)
	return
}

// decode command arguments. Missing arguments leave the defaults.
func decode(args json.RawMessage, into any) (err error) {
	if len(args) == 0 || string(args) == "null" {
		return
	}

	err = json.Unmarshal(args, into)
	if err != nil {
		err = errors.Join(ErrArgs, err)
	}
	return
}

func cmdAssemble(s *Server, k *Socket, args json.RawMessage) (err error) {
	var a AssembleArgs
	err = decode(args, &a)
	if err != nil {
		return
	}

	s.stop()

	prog, err := s.engine.Assemble(a.Source)
	if err != nil {
		model := ProgramModel{}
		var list asm.ErrorList
		if errors.As(err, &list) {
			for _, line := range list {
				model.Errors = append(model.Errors, line.Error())
			}
		} else {
			model.Errors = []string{err.Error()}
		}
		k.reply("program", model)
		err = nil
		return
	}

	model := ProgramModel{Origin: prog.Origin, Listing: prog.Listing()}
	for _, warning := range prog.Warnings {
		model.Warnings = append(model.Warnings, warning.String())
	}
	s.Broadcast("program", model)
	s.Broadcast("cpu", cpuModel(s.engine.Snapshot()))

	return
}

func cmdStep(s *Server, k *Socket, args json.RawMessage) (err error) {
	result, err := s.engine.Step()
	if errors.Is(err, emulator.ErrRunning) {
		return
	}

	var entries []emulator.LogEntry
	if result.Executed || err != nil {
		entries = append(entries, result.Entry)
	}

	// A runtime fault is reported by the log and cpu views.
	err = nil
	s.broadcastState(result.Snapshot, entries)

	return
}

func cmdRun(s *Server, k *Socket, args json.RawMessage) (err error) {
	var a RunArgs
	err = decode(args, &a)
	if err != nil {
		return
	}

	err = s.start(a.Fast)
	return
}

func cmdStop(s *Server, k *Socket, args json.RawMessage) (err error) {
	s.stop()
	s.Broadcast("cpu", cpuModel(s.engine.Snapshot()))
	return
}

func cmdReset(s *Server, k *Socket, args json.RawMessage) (err error) {
	s.stop()
	s.engine.Reset()
	s.Broadcast("cpu", cpuModel(s.engine.Snapshot()))
	return
}

func cmdBreak(s *Server, k *Socket, args json.RawMessage) (err error) {
	var a BreakArgs
	err = decode(args, &a)
	if err != nil {
		return
	}

	switch {
	case a.Address != nil:
		s.engine.ToggleBreakpoint(*a.Address)
	case a.Line != nil:
		_, _, err = s.engine.ToggleBreakpointLine(*a.Line)
		if err != nil {
			return
		}
	default:
		err = ErrArgs
		return
	}

	s.Broadcast("breakpoints", breakpointsModel(s.engine.Breakpoints()))
	return
}

func cmdClear(s *Server, k *Socket, args json.RawMessage) (err error) {
	s.engine.ClearBreakpoints()
	s.Broadcast("breakpoints", breakpointsModel(s.engine.Breakpoints()))
	return
}

func cmdMemory(s *Server, k *Socket, args json.RawMessage) (err error) {
	var a MemoryArgs
	err = decode(args, &a)
	if err != nil {
		return
	}

	data := s.engine.ReadMemory(a.Start, a.End)
	model := MemoryModel{Start: a.Start, Data: make([]int, len(data))}
	for n, value := range data {
		model.Data[n] = int(value)
	}
	k.reply("memory", model)

	return
}

func cmdWrite(s *Server, k *Socket, args json.RawMessage) (err error) {
	var a WriteArgs
	err = decode(args, &a)
	if err != nil {
		return
	}

	err = s.engine.WriteMemory(a.Address, a.Value)
	return
}
