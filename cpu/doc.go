// Package cpu implements the Intel 8085 execution core.
//
// The CPU holds the seven 8-bit registers (A, B, C, D, E, H, L), the
// 16-bit stack pointer and program counter, the five condition flags, and
// a flat 64K byte memory. Step executes exactly one instruction with
// bit-exact flag semantics. Opcodes that need external hardware (IN, OUT,
// EI, DI, RIM, SIM) or that have no 8085 definition raise a runtime error
// and leave the state untouched.
//
// All address arithmetic (PC, SP, HL, pair increments) wraps modulo 65536.
package cpu
