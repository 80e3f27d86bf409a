package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.True(s.Empty())
	assert.False(s.Full())

	s.Push(Frame{Site: 0x2000, Target: 0x2100, Return: 0x2003})
	assert.False(s.Empty())
	assert.Equal(1, len(s.Data))
	assert.Equal(uint16(0x2100), s.Data[0].Target)
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Push(Frame{Return: 0x0003})
	s.Push(Frame{Return: 0x0103})

	frame, ok := s.Pop()
	assert.True(ok)
	assert.Equal(uint16(0x0103), frame.Return)
	assert.Equal(1, len(s.Data))

	frame, ok = s.Pop()
	assert.True(ok)
	assert.Equal(uint16(0x0003), frame.Return)
	assert.True(s.Empty())

	frame, ok = s.Pop()
	assert.False(ok)
	assert.Equal(Frame{}, frame)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	_, ok := s.Peek()
	assert.False(ok)

	s.Push(Frame{Return: 1})
	s.Push(Frame{Return: 2})

	frame, ok := s.Peek()
	assert.True(ok)
	assert.Equal(uint16(2), frame.Return)
	assert.Equal(2, len(s.Data))
}

func TestStack_Return(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Push(Frame{Return: 0x10})
	s.Push(Frame{Return: 0x20})
	s.Push(Frame{Return: 0x30})

	// Unknown return addresses are ignored.
	_, ok := s.Return(0x40)
	assert.False(ok)
	assert.Equal(3, len(s.Data))

	// Returning past inner frames unwinds them.
	frame, ok := s.Return(0x20)
	assert.True(ok)
	assert.Equal(uint16(0x20), frame.Return)
	assert.Equal([]Frame{{Return: 0x10}}, s.Frames())
}

func TestStack_Capacity(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}

	for n := range STACK_LIMIT {
		assert.False(s.Full())
		s.Push(Frame{Return: uint16(n)})
	}

	assert.True(s.Full())
	assert.Equal(STACK_LIMIT, len(s.Data))

	// The oldest frame is dropped when full.
	s.Push(Frame{Return: 0xffff})
	assert.Equal(STACK_LIMIT, len(s.Data))
	assert.Equal(uint16(1), s.Data[0].Return)
	assert.Equal(uint16(0xffff), s.Data[STACK_LIMIT-1].Return)

	s.Reset()
	assert.True(s.Empty())
}

func TestCpuCalls(t *testing.T) {
	assert := assert.New(t)

	cpu := assemble(t,
		"        LXI SP,0",   // 0000
		"        CALL OUTER", // 0003
		"        HLT",        // 0006
		"OUTER:  CALL INNER", // 0007
		"        RET",        // 000A
		"INNER:  RST 5",      // 000B
		"        RET",        // 000C
		"        ORG 28H",
		"        RET",
	)

	depth := []int{0, 0, 1, 2, 3, 2, 1, 0}
	for n, want := range depth {
		assert.Equal(want, len(cpu.Calls.Data), "step %d", n)
		_, err := cpu.Step()
		assert.NoError(err)
	}

	frame, ok := cpu.Calls.Peek()
	assert.False(ok)
	assert.Equal(Frame{}, frame)

	assert.Equal(uint16(0x0007), cpu.PC)
	assert.True(cpu.Halted)
	assert.True(cpu.Calls.Empty())
}
