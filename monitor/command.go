package monitor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ezrec/i8085/emulator"
	"github.com/ezrec/i8085/isa"
)

// command is a monitor command.
type command struct {
	Name    string
	Alias   string
	Usage   string
	Help    string
	Repeat  bool // An empty line repeats the command.
	Handler func(mon *Monitor, args []string) error
}

var commands []*command

func init() {
	commands = []*command{
		{"help", "?", "help", f("list commands"), false, cmdHelp},
		{"load", "l", "load FILE", f("assemble and load a source file"), false, cmdLoad},
		{"list", "", "list", f("show the assembler listing"), false, cmdList},
		{"symbols", "sym", "symbols", f("show the symbol table"), false, cmdSymbols},
		{"step", "s", "step [COUNT]", f("execute instructions one at a time"), true, cmdStep},
		{"run", "r", "run", f("run, logging every instruction"), false, cmdRun},
		{"fast", "g", "fast", f("run, logging only halts, breakpoints and faults"), false, cmdFast},
		{"wait", "w", "wait", f("wait for the run to finish"), false, cmdWait},
		{"stop", "", "stop", f("stop the run"), false, cmdStop},
		{"break", "b", "break [ADDR | line N]", f("toggle or list breakpoints"), false, cmdBreak},
		{"clear", "", "clear", f("remove every breakpoint"), false, cmdClear},
		{"regs", "x", "regs", f("show registers and flags"), false, cmdRegs},
		{"trace", "bt", "trace", f("show subroutine calls in progress"), false, cmdTrace},
		{"dump", "d", "dump [START [END]]", f("show a page of memory"), true, cmdDump},
		{"dis", "u", "dis [ADDR [COUNT]]", f("disassemble memory"), true, cmdDis},
		{"set", "e", "set ADDR VALUE...", f("write bytes to memory"), false, cmdSet},
		{"reset", "", "reset", f("reset the CPU to the program origin"), false, cmdReset},
		{"quit", "q", "quit", f("leave the monitor"), false, cmdQuit},
	}
}

func lookup(word string) (cmd *command, ok bool) {
	word = strings.ToLower(word)
	for _, cmd = range commands {
		if cmd.Name == word || (len(cmd.Alias) != 0 && cmd.Alias == word) {
			ok = true
			return
		}
	}
	cmd = nil
	return
}

func cmdHelp(mon *Monitor, args []string) (err error) {
	for _, cmd := range commands {
		usage := cmd.Usage
		if len(cmd.Alias) != 0 {
			usage += " (" + cmd.Alias + ")"
		}
		mon.println(fmt.Sprintf("  %-28s %v", usage, cmd.Help))
	}
	return
}

func cmdLoad(mon *Monitor, args []string) (err error) {
	if len(args) != 1 {
		err = ErrUsage
		return
	}

	mon.stop()

	source, err := os.ReadFile(args[0])
	if err != nil {
		return
	}

	prog, err := mon.Assemble(string(source))
	if err != nil {
		return
	}

	for _, warning := range prog.Warnings {
		mon.println(warning.String())
	}
	mon.printf("%v: %d statements, origin %04X\n", args[0], len(prog.Statements), prog.Origin)

	return
}

func cmdList(mon *Monitor, args []string) (err error) {
	prog := mon.Program()
	if prog == nil {
		err = ErrNoProgram
		return
	}

	mon.printf("%v", prog.Listing())
	return
}

func cmdSymbols(mon *Monitor, args []string) (err error) {
	prog := mon.Program()
	if prog == nil {
		err = ErrNoProgram
		return
	}

	for name, sym := range prog.Symbols.All() {
		mon.printf("%-16s %04X  %v\n", name, uint16(sym.Value), sym.Kind)
	}
	return
}

func cmdStep(mon *Monitor, args []string) (err error) {
	count := 1
	if len(args) > 1 {
		err = ErrUsage
		return
	}
	if len(args) == 1 {
		count, err = strconv.Atoi(args[0])
		if err != nil || count < 1 {
			err = ErrUsage
			return
		}
	}

	for range count {
		var result emulator.StepResult
		result, err = mon.Step()
		if err != nil {
			return
		}
		if !result.Executed {
			mon.println(f("halted"))
			break
		}
		mon.println(result.Entry.String())
		if result.State == emulator.STATE_HALTED {
			break
		}
	}

	return
}

func cmdRun(mon *Monitor, args []string) (err error) {
	return mon.start(false)
}

func cmdFast(mon *Monitor, args []string) (err error) {
	return mon.start(true)
}

func cmdWait(mon *Monitor, args []string) (err error) {
	mon.wait()
	return
}

func cmdStop(mon *Monitor, args []string) (err error) {
	mon.stop()
	return
}

func cmdBreak(mon *Monitor, args []string) (err error) {
	switch {
	case len(args) == 0:
		for _, addr := range mon.Breakpoints() {
			text, _ := mon.Disassemble(addr)
			mon.printf("%04X  %v\n", addr, text)
		}
	case len(args) == 2 && strings.EqualFold(args[0], "line"):
		var lineno int
		lineno, err = strconv.Atoi(args[1])
		if err != nil {
			err = ErrUsage
			return
		}
		var addr uint16
		var set bool
		addr, set, err = mon.ToggleBreakpointLine(lineno)
		if err != nil {
			return
		}
		reportBreak(mon, addr, set)
	case len(args) == 1:
		var addr uint16
		addr, err = mon.Address(args[0])
		if err != nil {
			return
		}
		reportBreak(mon, addr, mon.ToggleBreakpoint(addr))
	default:
		err = ErrUsage
	}

	return
}

func reportBreak(mon *Monitor, addr uint16, set bool) {
	if set {
		mon.printf("breakpoint set at %04X\n", addr)
	} else {
		mon.printf("breakpoint cleared at %04X\n", addr)
	}
}

func cmdClear(mon *Monitor, args []string) (err error) {
	mon.ClearBreakpoints()
	return
}

func cmdRegs(mon *Monitor, args []string) (err error) {
	snap := mon.Snapshot()

	mon.printf("%v", snap.Cpu)
	mon.printf("state: %v line: %d elapsed: %v\n", snap.State, snap.LineNo, snap.Elapsed)
	if snap.Fault != nil {
		mon.printf("fault: %v\n", snap.Fault)
	}

	return
}

func cmdTrace(mon *Monitor, args []string) (err error) {
	snap := mon.Snapshot()

	names := map[uint16]string{}
	if prog := mon.Program(); prog != nil {
		for name, sym := range prog.Symbols.All() {
			if _, ok := names[uint16(sym.Value)]; !ok {
				names[uint16(sym.Value)] = name
			}
		}
	}

	for n := len(snap.Calls) - 1; n >= 0; n-- {
		frame := snap.Calls[n]
		target := isa.Hex16(frame.Target)
		if name, ok := names[frame.Target]; ok {
			target = name
		}
		mon.printf("#%d  %04X  %v, returns to %04X\n", len(snap.Calls)-1-n, frame.Site, target, frame.Return)
	}

	return
}

func cmdDump(mon *Monitor, args []string) (err error) {
	start := mon.Snapshot().Cpu.PC
	end := start + uint16(mon.PageSize-1)

	if len(args) > 2 {
		err = ErrUsage
		return
	}
	if len(args) >= 1 {
		start, err = mon.Address(args[0])
		if err != nil {
			return
		}
		end = start + uint16(mon.PageSize-1)
	}
	if len(args) == 2 {
		end, err = mon.Address(args[1])
		if err != nil {
			return
		}
	}

	data := mon.ReadMemory(start, end)
	for row := 0; row < len(data); row += 16 {
		chunk := data[row:min(row+16, len(data))]
		var hex strings.Builder
		var text strings.Builder
		for _, value := range chunk {
			fmt.Fprintf(&hex, " %02X", value)
			if value >= 0x20 && value < 0x7f {
				text.WriteByte(value)
			} else {
				text.WriteByte('.')
			}
		}
		mon.println(fmt.Sprintf("%04X %-48s  %v", start+uint16(row), hex.String(), text.String()))
	}

	mon.lastLine = "dump " + isa.Hex16(end+1)
	return
}

func cmdDis(mon *Monitor, args []string) (err error) {
	addr := mon.Snapshot().Cpu.PC
	count := DIS_COUNT

	if len(args) > 2 {
		err = ErrUsage
		return
	}
	if len(args) >= 1 {
		addr, err = mon.Address(args[0])
		if err != nil {
			return
		}
	}
	if len(args) == 2 {
		count, err = strconv.Atoi(args[1])
		if err != nil || count < 1 {
			err = ErrUsage
			return
		}
	}

	breakpoints := map[uint16]bool{}
	for _, bp := range mon.Breakpoints() {
		breakpoints[bp] = true
	}

	pc := mon.Snapshot().Cpu.PC
	for range count {
		text, length := mon.Disassemble(addr)
		mark := "  "
		if breakpoints[addr] {
			mark = "* "
		}
		if addr == pc {
			mark = mark[:1] + ">"
		}
		mon.println(fmt.Sprintf("%v%04X  %v", mark, addr, text))
		addr += uint16(length)
	}

	mon.lastLine = fmt.Sprintf("dis %v %d", isa.Hex16(addr), count)
	return
}

func cmdSet(mon *Monitor, args []string) (err error) {
	if len(args) < 2 {
		err = ErrUsage
		return
	}

	addr, err := mon.Address(args[0])
	if err != nil {
		return
	}

	for _, arg := range args[1:] {
		var value byte
		value, err = mon.Byte(arg)
		if err != nil {
			return
		}
		err = mon.WriteMemory(addr, value)
		if err != nil {
			return
		}
		addr++
	}

	return
}

func cmdReset(mon *Monitor, args []string) (err error) {
	mon.stop()
	mon.Reset()

	snap := mon.Snapshot()
	mon.printf("reset, PC %04X\n", snap.Cpu.PC)
	return
}

func cmdQuit(mon *Monitor, args []string) (err error) {
	return ErrQuit
}
