// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"log"
)

const (
	MEMORY_SIZE = 0x10000 // Size of the 8085 address space.
)

// State is the programmer visible state of the 8085, without memory.
type State struct {
	A, B, C, D, E, H, L byte   // Registers.
	SP                  uint16 // Stack pointer.
	PC                  uint16 // Program counter.
	Flags               Flags  // Flags register.
	Halted              bool   // Set by HLT.
	Count               int    // Instructions executed since reset.
}

// BC returns the BC register pair.
func (st *State) BC() uint16 {
	return uint16(st.B)<<8 | uint16(st.C)
}

// DE returns the DE register pair.
func (st *State) DE() uint16 {
	return uint16(st.D)<<8 | uint16(st.E)
}

// HL returns the HL register pair.
func (st *State) HL() uint16 {
	return uint16(st.H)<<8 | uint16(st.L)
}

// PSW returns A and the flag byte as a register pair.
func (st *State) PSW() uint16 {
	return uint16(st.A)<<8 | uint16(st.Flags.Byte())
}

// String returns the register state as a string.
func (st State) String() (text string) {
	text += fmt.Sprintf("   A: %02X   F: %02X  [%v]\n", st.A, st.Flags.Byte(), st.Flags)
	text += fmt.Sprintf("   B: %02X   C: %02X\n", st.B, st.C)
	text += fmt.Sprintf("   D: %02X   E: %02X\n", st.D, st.E)
	text += fmt.Sprintf("   H: %02X   L: %02X\n", st.H, st.L)
	text += fmt.Sprintf("  SP: %04X PC: %04X\n", st.SP, st.PC)
	text += fmt.Sprintf("halt: %v count: %d\n", st.Halted, st.Count)
	return
}

// Cpu is the simulation context of an 8085 and its 64K of memory.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	State                    // Register state.
	Memory [MEMORY_SIZE]byte // Memory.
	Calls  Stack             // Subroutine calls in progress.
}

// NewCpu creates a new CPU with cleared memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	return
}

// Reset the CPU state.
// - Copies the image into memory (a nil image clears memory).
// - Clears the registers, flags and halt state.
// - Sets SP to 0 and PC to the origin.
// - Zeros the instruction counter and forgets tracked calls.
func (cpu *Cpu) Reset(image *[MEMORY_SIZE]byte, origin uint16) {
	if cpu.Verbose {
		log.Printf("cpu: reset, origin %04X", origin)
	}

	if image != nil {
		cpu.Memory = *image
	} else {
		clear(cpu.Memory[:])
	}

	cpu.State = State{PC: origin}
	cpu.Calls.Reset()
}

// Read a byte of memory.
func (cpu *Cpu) Read(addr uint16) byte {
	return cpu.Memory[addr]
}

// Write a byte of memory.
func (cpu *Cpu) Write(addr uint16, value byte) {
	cpu.Memory[addr] = value
}

// read16 reads a little endian word. The high byte address wraps.
func (cpu *Cpu) read16(addr uint16) uint16 {
	return uint16(cpu.Memory[addr]) | uint16(cpu.Memory[addr+1])<<8
}

// write16 writes a little endian word. The high byte address wraps.
func (cpu *Cpu) write16(addr uint16, value uint16) {
	cpu.Memory[addr] = byte(value)
	cpu.Memory[addr+1] = byte(value >> 8)
}

// push writes the high byte to SP-1, the low byte to SP-2, then
// decrements SP by two.
func (cpu *Cpu) push(value uint16) {
	cpu.Memory[cpu.SP-1] = byte(value >> 8)
	cpu.Memory[cpu.SP-2] = byte(value)
	cpu.SP -= 2
}

// pop reads the low byte from SP, the high byte from SP+1, then
// increments SP by two.
func (cpu *Cpu) pop() (value uint16) {
	value = cpu.read16(cpu.SP)
	cpu.SP += 2
	return
}
