package monitor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/i8085/emulator"
)

const countdown = `
        ORG 2000H
        MVI B,3
LOOP:   DCR B
        JNZ LOOP
        HLT
`

func doServe(t *testing.T, mon *Monitor, lines ...string) string {
	input := &strings.Builder{}
	for _, line := range lines {
		input.WriteString(line + "\n")
	}

	output := &bytes.Buffer{}
	err := mon.Serve(strings.NewReader(input.String()), output, false)
	if err != nil {
		t.Fatal(err)
	}
	return output.String()
}

func TestMonitorSession(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "countdown.asm")
	err := os.WriteFile(path, []byte(countdown), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	mon := NewMonitor(emulator.NewEngine())

	output := doServe(t, mon,
		"load "+path,
		"break LOOP",
		"fast",
		"wait",
		"regs",
		"step",
		"",
		"b",
		"clear",
		"g",
		"w",
		"step",
		"dis 2000H 2",
		"dump 2000H 2007H",
		"set 3000H 41H 'B'",
		"d 3000H 3001H",
		"bogus",
		"step x",
		"reset",
		"quit",
		"regs",
	)

	expected := []string{
		": 4 statements, origin 2000\n",
		"breakpoint set at 2002\n",
		"2002  DCR B  ; breakpoint\n",
		"PausedAtBreakpoint at 2002, 1 instructions\n",
		"   B: 03   C: 00\n",
		"2002  DCR B\n",
		"2003  JNZ 2002H\n",
		"2006  HLT  ; halted\n",
		"Halted at 2007, 5 instructions\n",
		"halted\n",
		"  2000  MVI B,03H\n  2002  DCR B\n",
		"2000  06 03 05 C2 02 20 76 00",
		"3000  41 42",
		"AB\n",
		"unknown command \"bogus\", try 'help'\n",
		"usage: step [COUNT]\n",
		"reset, PC 2000\n",
	}

	last := 0
	for _, text := range expected {
		n := strings.Index(output[last:], text)
		if !assert.True(n >= 0, "missing %q in:\n%v", text, output[last:]) {
			continue
		}
		last += n + len(text)
	}

	// Nothing runs after quit.
	assert.Equal(1, strings.Count(output, "state: "))
	assert.Empty(mon.Breakpoints())
}

func TestMonitorAddress(t *testing.T) {
	assert := assert.New(t)

	engine := emulator.NewEngine()
	_, err := engine.Assemble(countdown)
	if err != nil {
		t.Fatal(err)
	}

	mon := NewMonitor(engine)

	table := [](struct {
		expr string
		addr uint16
	}){
		{"2000H", 0x2000},
		{"LOOP", 0x2002},
		{"LOOP+1", 0x2003},
		{"$", 0x2000},
		{"$+2", 0x2002},
		{"0FFFFH", 0xffff},
	}

	for _, entry := range table {
		addr, err := mon.Address(entry.expr)
		assert.NoError(err, entry.expr)
		assert.Equal(entry.addr, addr, entry.expr)
	}

	_, err = mon.Address("10000H")
	assert.Error(err)

	_, err = mon.Address("NOWHERE")
	assert.Error(err)

	value, err := mon.Byte("-1")
	assert.NoError(err)
	assert.Equal(byte(0xff), value)

	_, err = mon.Byte("256")
	assert.Error(err)
}

func TestMonitorRepeat(t *testing.T) {
	assert := assert.New(t)

	engine := emulator.NewEngine()
	_, err := engine.Assemble(countdown)
	if err != nil {
		t.Fatal(err)
	}

	mon := NewMonitor(engine)
	mon.PageSize = 16

	output := doServe(t, mon, "dis 2000H 1", "", "dump 0", "")

	assert.Contains(output, " >2000  MVI B,03H\n")
	assert.Contains(output, "  2002  DCR B\n")
	assert.Contains(output, "0000  00 00")
	assert.Contains(output, "0010  00 00")
	assert.NotContains(output, "0020  ")
}

func TestMonitorHelp(t *testing.T) {
	assert := assert.New(t)

	mon := NewMonitor(emulator.NewEngine())
	output := doServe(t, mon, "help", "list")

	for _, cmd := range commands {
		assert.Contains(output, cmd.Usage)
	}
	assert.Contains(output, ErrNoProgram.Error())
}

func TestMonitorTrace(t *testing.T) {
	assert := assert.New(t)

	engine := emulator.NewEngine()
	_, err := engine.Assemble(strings.Join([]string{
		"        LXI SP,0",
		"        CALL OUTER",
		"        HLT",
		"OUTER:  CALL INNER",
		"        RET",
		"INNER:  NOP",
		"        RET",
	}, "\n"))
	if err != nil {
		t.Fatal(err)
	}

	mon := NewMonitor(engine)
	output := doServe(t, mon, "step 3", "bt", "step 2", "trace")

	assert.Contains(output, "#0  0007  INNER, returns to 000A\n#1  0003  OUTER, returns to 0006\n")
	assert.Equal(1, strings.Count(output, "INNER, returns"))
	assert.Equal(2, strings.Count(output, "OUTER, returns"))
}
