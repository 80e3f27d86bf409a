package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeTable(t *testing.T) {
	assert := assert.New(t)

	undefined := []byte{0x08, 0x10, 0x18, 0x28, 0x38, 0xcb, 0xd9, 0xdd, 0xed, 0xfd}

	defined := 0
	for opcode := range 256 {
		inst, ok := Decode(byte(opcode))
		if !ok {
			assert.Contains(undefined, byte(opcode), "opcode 0x%02x", opcode)
			continue
		}
		defined++
		assert.Equal(byte(opcode), inst.Opcode)

		// Re-encoding the decoded fields gives the same opcode.
		var fields []int
		switch inst.Pattern {
		case PATTERN_REG, PATTERN_REG_IMM8:
			fields = []int{int(inst.Dst)}
		case PATTERN_REG_REG:
			fields = []int{int(inst.Dst), int(inst.Src)}
		case PATTERN_PAIR, PATTERN_PAIR_IMM16, PATTERN_PAIR_BD, PATTERN_PAIR_PSW:
			fields = []int{inst.Pair.Code()}
		case PATTERN_RST:
			fields = []int{inst.Vector}
		}
		assert.Equal(byte(opcode), inst.Encode(fields...), "%v", inst.Mnemonic)
		assert.Equal(1+inst.Pattern.Immediate(), inst.Length, "%v", inst.Mnemonic)
	}

	assert.Equal(256-len(undefined), defined)
}

func TestLookup(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		mnemonic string
		pattern  Pattern
		opcode   byte
		category Category
	}){
		{"mov", PATTERN_REG_REG, 0x40, CATEGORY_TRANSFER},
		{"MVI", PATTERN_REG_IMM8, 0x06, CATEGORY_TRANSFER},
		{"ADI", PATTERN_IMM8, 0xc6, CATEGORY_ARITH8},
		{"INR", PATTERN_REG, 0x04, CATEGORY_INCDEC8},
		{"DAD", PATTERN_PAIR, 0x09, CATEGORY_DAD},
		{"CMA", PATTERN_NONE, 0x2f, CATEGORY_COMPLEMENT},
		{"JPE", PATTERN_IMM16, 0xea, CATEGORY_BRANCH},
		{"CPO", PATTERN_IMM16, 0xe4, CATEGORY_BRANCH},
		{"RM", PATTERN_NONE, 0xf8, CATEGORY_BRANCH},
		{"PUSH", PATTERN_PAIR_PSW, 0xc5, CATEGORY_STACK},
		{"RIM", PATTERN_NONE, 0x20, CATEGORY_UNSUPPORTED},
	}

	for _, entry := range table {
		desc, ok := Lookup(entry.mnemonic)
		if !assert.True(ok, entry.mnemonic) {
			continue
		}
		assert.Equal(entry.pattern, desc.Pattern, entry.mnemonic)
		assert.Equal(entry.opcode, desc.Opcode, entry.mnemonic)
		assert.Equal(entry.category, desc.Category, entry.mnemonic)
	}

	_, ok := Lookup("DB")
	assert.False(ok)

	assert.Equal(80, len(Mnemonics()))
}

func TestDecodeFlags(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		opcode  byte
		affects FlagMask
	}){
		{0x78, FLAG_NONE},                          // MOV A,B
		{0x80, FLAG_ALL},                           // ADD B
		{0x3c, FLAG_S | FLAG_Z | FLAG_AC | FLAG_P}, // INR A
		{0x03, FLAG_NONE},                          // INX B
		{0x09, FLAG_CY},                            // DAD B
		{0x27, FLAG_ALL},                           // DAA
		{0xa0, FLAG_ALL},                           // ANA B
		{0x2f, FLAG_NONE},                          // CMA
		{0x17, FLAG_CY},                            // RAL
		{0x3f, FLAG_CY},                            // CMC
		{0xc2, FLAG_NONE},                          // JNZ
		{0xf1, FLAG_ALL},                           // POP PSW
		{0xc1, FLAG_NONE},                          // POP B
		{0x76, FLAG_NONE},                          // HLT
	}

	for _, entry := range table {
		inst, ok := Decode(entry.opcode)
		assert.True(ok)
		assert.Equal(entry.affects, inst.Affects, "0x%02x %v", entry.opcode, inst.Mnemonic)
	}

	inst, _ := Decode(0xdb)
	assert.False(inst.Supported())
	inst, _ = Decode(0x00)
	assert.True(inst.Supported())
}

func TestCond(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		cond Cond
		flag FlagMask
		want bool
	}){
		{COND_NZ, FLAG_Z, false},
		{COND_Z, FLAG_Z, true},
		{COND_NC, FLAG_CY, false},
		{COND_C, FLAG_CY, true},
		{COND_PO, FLAG_P, false},
		{COND_PE, FLAG_P, true},
		{COND_P, FLAG_S, false},
		{COND_M, FLAG_S, true},
	}

	for _, entry := range table {
		flag, want := entry.cond.Flag()
		assert.Equal(entry.flag, flag, entry.cond.String())
		assert.Equal(entry.want, want, entry.cond.String())
	}
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	reg, ok := ParseRegister("m")
	assert.True(ok)
	assert.Equal(REG_M, reg)

	_, ok = ParseRegister("X")
	assert.False(ok)

	pair, ok := ParsePair("hl")
	assert.True(ok)
	assert.Equal(PAIR_H, pair)

	pair, ok = ParsePair("PSW")
	assert.True(ok)
	assert.Equal(3, pair.Code())

	assert.True(Reserved("sp"))
	assert.True(Reserved("A"))
	assert.False(Reserved("LOOP"))
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	memory := []byte{
		0x3e, 0x05,       // MVI A,05H
		0x21, 0x00, 0xc0, // LXI H,0C000H
		0x78,             // MOV A,B
		0xf5,             // PUSH PSW
		0xcf,             // RST 1
		0xca, 0x34, 0x12, // JZ 1234H
		0x08,             // undefined
	}
	read := func(addr uint16) byte {
		if int(addr) < len(memory) {
			return memory[addr]
		}
		return 0
	}

	expected := []struct {
		text   string
		length int
	}{
		{"MVI A,05H", 2},
		{"LXI H,0C000H", 3},
		{"MOV A,B", 1},
		{"PUSH PSW", 1},
		{"RST 1", 1},
		{"JZ 1234H", 3},
		{"DB 08H", 1},
	}

	addr := uint16(0)
	for _, entry := range expected {
		text, length := Disassemble(read, addr)
		assert.Equal(entry.text, text)
		assert.Equal(entry.length, length, entry.text)
		addr += uint16(length)
	}

	assert.Equal("0FFH", Hex8(0xff))
	assert.Equal("2000H", Hex16(0x2000))
}

func TestNames(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("M", REG_M.String())
	assert.Equal("A", REG_A.String())
	assert.Equal("PSW", PAIR_PSW.String())
	assert.Equal("SP", PAIR_SP.String())
	assert.Equal("PE", COND_PE.String())
	assert.Equal("dad", CATEGORY_DAD.String())
	assert.Equal("unsupported", CATEGORY_UNSUPPORTED.String())
	assert.Equal("Register(9)", Register(9).String())
	assert.Equal("Pair(-1)", Pair(-1).String())
}
