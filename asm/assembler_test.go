package asm

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func source(lines ...string) string {
	return strings.Join(lines, "\n")
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(uint16(0), prog.Origin)
	assert.Equal(0, len(prog.Statements))
	assert.Equal(0, prog.Symbols.Len())
}

func TestAssemblerEncode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line  string
		bytes []byte
	}){
		{"NOP", []byte{0x00}},
		{"HLT", []byte{0x76}},
		{"MOV A,B", []byte{0x78}},
		{"mov m,a", []byte{0x77}},
		{"MOV B,M", []byte{0x46}},
		{"MVI A,05H", []byte{0x3e, 0x05}},
		{"MVI M,-1", []byte{0x36, 0xff}},
		{"MVI C,'A'", []byte{0x0e, 0x41}},
		{"LXI SP,2000H", []byte{0x31, 0x00, 0x20}},
		{"LXI H,1234H", []byte{0x21, 0x34, 0x12}},
		{"MVI A,FFH", []byte{0x3e, 0xff}},
		{"LXI H,ABCDH", []byte{0x21, 0xcd, 0xab}},
		{"LDA 0C000H", []byte{0x3a, 0x00, 0xc0}},
		{"STAX D", []byte{0x12}},
		{"LDAX B", []byte{0x0a}},
		{"ADD B", []byte{0x80}},
		{"ADC M", []byte{0x8e}},
		{"SUI 1", []byte{0xd6, 0x01}},
		{"INR A", []byte{0x3c}},
		{"DCR B", []byte{0x05}},
		{"INX SP", []byte{0x33}},
		{"DCX H", []byte{0x2b}},
		{"DAD D", []byte{0x19}},
		{"ANA C", []byte{0xa1}},
		{"CMP E", []byte{0xbb}},
		{"CPI 0AH", []byte{0xfe, 0x0a}},
		{"JMP 0", []byte{0xc3, 0x00, 0x00}},
		{"JNZ 2000H", []byte{0xc2, 0x00, 0x20}},
		{"JM 2000H", []byte{0xfa, 0x00, 0x20}},
		{"CZ 10H", []byte{0xcc, 0x10, 0x00}},
		{"RNC", []byte{0xd0}},
		{"RPE", []byte{0xe8}},
		{"RST 7", []byte{0xff}},
		{"RST 0", []byte{0xc7}},
		{"PUSH PSW", []byte{0xf5}},
		{"POP B", []byte{0xc1}},
		{"POP PSW", []byte{0xf1}},
		{"PUSH H", []byte{0xe5}},
		{"XCHG", []byte{0xeb}},
		{"IN 10H", []byte{0xdb, 0x10}},
		{"OUT 11H", []byte{0xd3, 0x11}},
		{"SIM", []byte{0x30}},
	}

	for _, entry := range table {
		prog, err := Assemble(entry.line)
		if !assert.NoError(err, entry.line) {
			continue
		}
		assert.Equal(1, len(prog.Statements), entry.line)
		assert.Equal(entry.bytes, prog.Statements[0].Bytes, entry.line)
		assert.Equal(entry.bytes, prog.Image[:len(entry.bytes)], entry.line)
		for n := range entry.bytes {
			assert.True(prog.Code(uint16(n)), entry.line)
		}
		assert.False(prog.Code(uint16(len(entry.bytes))), entry.line)
	}
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	// Forward and backward references to the same label.
	prog, err := Assemble(source(
		"        ORG 2000H",
		"        JMP TARGET ; forward",
		"TARGET: NOP",
		"        JMP TARGET ; backward",
		"        HLT",
	))
	assert.NoError(err)
	assert.Equal(uint16(0x2000), prog.Origin)

	sym, ok := prog.Symbols.Lookup("TARGET")
	assert.True(ok)
	assert.Equal(int64(0x2003), sym.Value)
	assert.Equal(SYMBOL_LABEL, sym.Kind)

	assert.Equal([]byte{0xc3, 0x03, 0x20}, prog.Image[0x2000:0x2003])
	assert.Equal([]byte{0xc3, 0x03, 0x20}, prog.Image[0x2004:0x2007])
	assert.Equal(prog.Statements[0].Bytes, prog.Statements[2].Bytes)

	assert.Equal(uint16(0x2000), prog.LineAddress[2])
	assert.Equal(uint16(0x2003), prog.LineAddress[3])
	assert.Equal(uint16(0x2007), prog.LineAddress[5])
	assert.Equal(4, prog.AddressLine[0x2004])
	_, ok = prog.LineAddress[1]
	assert.False(ok)
}

func TestAssemblerDirectives(t *testing.T) {
	assert := assert.New(t)

	prog, err := Assemble(source(
		"COUNT   EQU 3",
		"SIZE:   EQU COUNT*2",
		"        ORG 100H",
		"START:  MVI B,COUNT",
		"        LXI H,BUF",
		"        JMP $",
		"BUF:    DS SIZE",
		"AFTER:",
		"LAST    EQU 0",
		"        END",
	))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(uint16(0x100), prog.Origin)

	sym, _ := prog.Symbols.Lookup("SIZE")
	assert.Equal(int64(6), sym.Value)
	assert.Equal(SYMBOL_CONSTANT, sym.Kind)

	sym, _ = prog.Symbols.Lookup("BUF")
	assert.Equal(int64(0x108), sym.Value)

	sym, _ = prog.Symbols.Lookup("AFTER")
	assert.Equal(int64(0x10e), sym.Value)

	assert.Equal([]byte{0x06, 0x03}, prog.Image[0x100:0x102])
	assert.Equal([]byte{0x21, 0x08, 0x01}, prog.Image[0x102:0x105])
	assert.Equal([]byte{0xc3, 0x05, 0x01}, prog.Image[0x105:0x108])

	for addr := uint16(0x108); addr < 0x10e; addr++ {
		assert.Equal(BYTE_DATA, prog.Kind[addr])
		assert.Equal(byte(0), prog.Image[addr])
	}
	assert.Equal(BYTE_NONE, prog.Kind[0x10e])

	stmt, ok := prog.Statement(0x10a)
	assert.True(ok)
	assert.Equal(7, stmt.LineNo)
	assert.False(stmt.Code())

	var names []string
	for name := range prog.Symbols.All() {
		names = append(names, name)
	}
	assert.Equal([]string{"AFTER", "BUF", "START", "COUNT", "LAST", "SIZE"}, names)
}

func TestAssemblerOrigin(t *testing.T) {
	assert := assert.New(t)

	prog, err := Assemble(source("NOP", "ORG 2000H", "NOP"))
	assert.NoError(err)
	assert.Equal(uint16(0), prog.Origin)
	assert.Equal(uint16(0x2000), prog.LineAddress[3])

	prog, err = Assemble(source("MVI A,1", "ORG 2000H", "HLT"))
	assert.NoError(err)
	assert.Equal(uint16(0), prog.Origin)
	assert.Equal(uint16(0x2000), prog.LineAddress[3])

	prog, err = Assemble(source("DS 4", "ORG 3000H", "NOP"))
	assert.NoError(err)
	assert.Equal(uint16(0x3000), prog.Origin)

	prog, err = Assemble(source("; header", "X EQU 1", "ORG 4000H", "ORG 5000H", "NOP"))
	assert.NoError(err)
	assert.Equal(uint16(0x4000), prog.Origin)
	assert.Equal(uint16(0x5000), prog.LineAddress[5])
}

func TestAssemblerOverlap(t *testing.T) {
	assert := assert.New(t)

	prog, err := Assemble(source(
		"ORG 10H",
		"MVI A,1",
		"MVI B,2",
		"ORG 11H",
		"NOP",
		"NOP",
	))
	assert.NoError(err)
	assert.Equal(1, len(prog.Warnings))
	assert.Equal(5, prog.Warnings[0].LineNo)

	// Later statements win.
	assert.Equal([]byte{0x3e, 0x00, 0x00, 0x02}, prog.Image[0x10:0x14])
	stmt, ok := prog.Statement(0x11)
	assert.True(ok)
	assert.Equal(5, stmt.LineNo)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	prog, err := Assemble(source(
		"START: NOP",         // 1
		"       FOO A",       // 2: unknown mnemonic
		"       MVI A,300",   // 3: out of range
		"START: NOP",         // 4: duplicate label
		"       JMP NOWHERE", // 5: undefined
		"       MOV A",       // 6: operand count
		"       MOV M,M",     // 7: HLT encoding
		"       DS LATER",    // 8: not a constant yet
		"LATER: NOP",         // 9
		"       RST 8",       // 10: out of range
		"X      EQU",         // 11: directive
		"       LDAX H",      // 12: bad pair
		"1X:    NOP",         // 13: lex
		"       MVI A,Y",     // 14: constant defined later
		"Y      EQU 1",       // 15
		"       LXI B,-1",    // 16: out of range
		"       ORG 10000H",  // 17: directive
	))
	assert.Nil(prog)

	var list ErrorList
	if !assert.True(errors.As(err, &list)) {
		t.Fatal(err)
	}

	expected := [](struct {
		lineNo int
		class  error
		err    error
	}){
		{2, ErrSyntax, ErrMnemonicUnknown},
		{3, ErrRange, ErrOutOfRange{}},
		{4, ErrSymbol, ErrDuplicate{}},
		{5, ErrSymbol, ErrUndefined("")},
		{6, ErrSyntax, ErrOperandCount},
		{7, ErrSyntax, ErrMovMemory},
		{8, ErrDirective, ErrUndefined("")},
		{10, ErrRange, ErrOutOfRange{}},
		{11, ErrDirective, ErrOperandCount},
		{12, ErrSyntax, ErrPairInvalid},
		{13, ErrLex, ErrLabelInvalid},
		{14, ErrSymbol, ErrForward("")},
		{16, ErrRange, ErrOutOfRange{}},
		{17, ErrDirective, ErrOrigin},
	}

	assert.Equal(len(expected), len(list))
	for n, entry := range expected {
		if n >= len(list) {
			break
		}
		assert.Equal(entry.lineNo, list[n].LineNo, list[n].Error())
		assert.ErrorIs(list[n], entry.class, list[n].Error())
		assert.ErrorIs(list[n], entry.err, list[n].Error())
	}

	assert.ErrorIs(err, ErrSymbol)
	assert.ErrorIs(err, ErrLex)
	assert.True(strings.HasPrefix(err.Error(), "line 2: "))
}

func TestAssemblerFailedNoProgram(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(source("MVI A,1", "BOGUS")))
	assert.Nil(prog)
	assert.ErrorIs(err, ErrMnemonicUnknown)

	// A successful parse on the same assembler starts from scratch.
	prog, err = asm.Parse(strings.NewReader(source("MVI A,1")))
	assert.NoError(err)
	assert.Equal([]byte{0x3e, 0x01}, prog.Image[0:2])
}

func TestAssemblerLineTooLong(t *testing.T) {
	assert := assert.New(t)

	long := "; " + strings.Repeat("x", IMAGE_SIZE)
	prog, err := Assemble(source("NOP", long, "HLT"))
	assert.Nil(prog)

	var list ErrorList
	if assert.ErrorAs(err, &list) && assert.Equal(1, len(list)) {
		assert.Equal(2, list[0].LineNo)
		assert.ErrorIs(list[0], ErrLex)
		assert.ErrorIs(list[0], bufio.ErrTooLong)
	}
}

func TestProgramListing(t *testing.T) {
	assert := assert.New(t)

	prog, err := Assemble(source("ORG 2000H", "MVI A,05H", "BUF: DS 4"))
	assert.NoError(err)

	listing := prog.Listing()
	assert.Contains(listing, "2000  3E 05")
	assert.Contains(listing, "MVI A,05H")
	assert.Contains(listing, "2002  (4)")

	var addrs []uint16
	for addr := range prog.Bytes() {
		addrs = append(addrs, addr)
	}
	assert.Equal([]uint16{0x2000, 0x2001}, addrs)
}
