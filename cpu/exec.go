// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"log"

	"github.com/ezrec/i8085/isa"
)

// Trace describes one executed instruction.
type Trace struct {
	Address uint16 // Address of the opcode.
	Opcode  byte   // Opcode byte.
	Text    string // Disassembled instruction.
	Length  int    // Instruction length in bytes.
	Branch  bool   // Conditional instruction whose condition held.
	Halted  bool   // Instruction was HLT.
}

// Fetch decodes the instruction at PC without modifying any state.
func (cpu *Cpu) Fetch() (inst *isa.Instruction, imm []byte, err error) {
	pc := cpu.PC
	opcode := cpu.Memory[pc]

	inst, ok := isa.Decode(opcode)
	if !ok {
		err = ErrInstruction{Address: pc, Opcode: opcode, Err: ErrUndefined}
		return
	}
	if !inst.Supported() {
		err = ErrInstruction{Address: pc, Opcode: opcode, Err: ErrUnsupported}
		return
	}

	imm = make([]byte, inst.Pattern.Immediate())
	for n := range imm {
		imm[n] = cpu.Memory[pc+1+uint16(n)]
	}

	return
}

// Step executes exactly one instruction.
// On error the CPU state is unchanged.
func (cpu *Cpu) Step() (trace Trace, err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	inst, imm, err := cpu.Fetch()
	if err != nil {
		if cpu.Verbose {
			log.Printf("cpu: %v", err)
		}
		return
	}

	trace = Trace{
		Address: cpu.PC,
		Opcode:  inst.Opcode,
		Text:    inst.Format(imm...),
		Length:  inst.Length,
	}

	cpu.PC += uint16(inst.Length)
	trace.Branch = cpu.execute(inst, imm)
	trace.Halted = cpu.Halted
	cpu.Count++

	if cpu.Verbose {
		log.Printf("cpu: %04X %-14s A=%02X F=%02X SP=%04X", trace.Address, trace.Text, cpu.A, cpu.Flags.Byte(), cpu.SP)
	}

	return
}

// register reads a register, or memory at HL for M.
func (cpu *Cpu) register(reg isa.Register) byte {
	switch reg {
	case isa.REG_B:
		return cpu.B
	case isa.REG_C:
		return cpu.C
	case isa.REG_D:
		return cpu.D
	case isa.REG_E:
		return cpu.E
	case isa.REG_H:
		return cpu.H
	case isa.REG_L:
		return cpu.L
	case isa.REG_M:
		return cpu.Memory[cpu.HL()]
	default:
		return cpu.A
	}
}

// setRegister writes a register, or memory at HL for M.
func (cpu *Cpu) setRegister(reg isa.Register, value byte) {
	switch reg {
	case isa.REG_B:
		cpu.B = value
	case isa.REG_C:
		cpu.C = value
	case isa.REG_D:
		cpu.D = value
	case isa.REG_E:
		cpu.E = value
	case isa.REG_H:
		cpu.H = value
	case isa.REG_L:
		cpu.L = value
	case isa.REG_M:
		cpu.Memory[cpu.HL()] = value
	default:
		cpu.A = value
	}
}

// pair reads a register pair. PSW is A and the flag byte.
func (cpu *Cpu) pair(pair isa.Pair) uint16 {
	switch pair {
	case isa.PAIR_B:
		return cpu.BC()
	case isa.PAIR_D:
		return cpu.DE()
	case isa.PAIR_H:
		return cpu.HL()
	case isa.PAIR_SP:
		return cpu.SP
	default:
		return cpu.PSW()
	}
}

func (cpu *Cpu) setPair(pair isa.Pair, value uint16) {
	hi, lo := byte(value>>8), byte(value)
	switch pair {
	case isa.PAIR_B:
		cpu.B, cpu.C = hi, lo
	case isa.PAIR_D:
		cpu.D, cpu.E = hi, lo
	case isa.PAIR_H:
		cpu.H, cpu.L = hi, lo
	case isa.PAIR_SP:
		cpu.SP = value
	default:
		cpu.A, cpu.Flags = hi, FlagsOf(lo)
	}
}

// condition evaluates a branch condition against the flags.
func (cpu *Cpu) condition(cond isa.Cond) bool {
	flag, want := cond.Flag()
	return cpu.Flags.Test(flag) == want
}

// logical sets the flags after an AND, OR or XOR.
func (cpu *Cpu) logical(value byte, ac bool) {
	cpu.A = value
	cpu.Flags.setSZP(value)
	cpu.Flags.AC = ac
	cpu.Flags.CY = false
}

// daa decimal adjusts the accumulator.
func (cpu *Cpu) daa() {
	value := int(cpu.A)
	fl := &cpu.Flags

	ac := false
	if value&0x0f > 9 || fl.AC {
		ac = (value&0x0f)+6 > 0x0f
		value += 6
	}
	// The high nibble test sees the carry out of the low adjustment.
	if value>>4 > 9 || fl.CY {
		value += 0x60
		fl.CY = true
	}

	cpu.A = byte(value)
	fl.AC = ac
	fl.setSZP(cpu.A)
}

// call pushes the return address and jumps to the target.
func (cpu *Cpu) call(inst *isa.Instruction, target uint16) {
	cpu.Calls.Push(Frame{
		Site:   cpu.PC - uint16(inst.Length),
		Target: target,
		Return: cpu.PC,
	})
	cpu.push(cpu.PC)
	cpu.PC = target
}

// ret pops the return address.
func (cpu *Cpu) ret() {
	cpu.PC = cpu.pop()
	cpu.Calls.Return(cpu.PC)
}

// execute performs an instruction. PC has already been advanced past it.
// Returns true when a conditional instruction's condition held.
func (cpu *Cpu) execute(inst *isa.Instruction, imm []byte) (taken bool) {
	var d8 byte
	var d16 uint16
	switch len(imm) {
	case 1:
		d8 = imm[0]
	case 2:
		d16 = uint16(imm[0]) | uint16(imm[1])<<8
	}

	fl := &cpu.Flags

	switch inst.Op {
	case isa.OP_NOP:
	case isa.OP_MOV:
		cpu.setRegister(inst.Dst, cpu.register(inst.Src))
	case isa.OP_MVI:
		cpu.setRegister(inst.Dst, d8)
	case isa.OP_LXI:
		cpu.setPair(inst.Pair, d16)
	case isa.OP_LDA:
		cpu.A = cpu.Memory[d16]
	case isa.OP_STA:
		cpu.Memory[d16] = cpu.A
	case isa.OP_LDAX:
		cpu.A = cpu.Memory[cpu.pair(inst.Pair)]
	case isa.OP_STAX:
		cpu.Memory[cpu.pair(inst.Pair)] = cpu.A
	case isa.OP_LHLD:
		cpu.L = cpu.Memory[d16]
		cpu.H = cpu.Memory[d16+1]
	case isa.OP_SHLD:
		cpu.Memory[d16] = cpu.L
		cpu.Memory[d16+1] = cpu.H
	case isa.OP_XCHG:
		cpu.D, cpu.E, cpu.H, cpu.L = cpu.H, cpu.L, cpu.D, cpu.E
	case isa.OP_XTHL:
		l, h := cpu.Memory[cpu.SP], cpu.Memory[cpu.SP+1]
		cpu.Memory[cpu.SP], cpu.Memory[cpu.SP+1] = cpu.L, cpu.H
		cpu.L, cpu.H = l, h
	case isa.OP_SPHL:
		cpu.SP = cpu.HL()
	case isa.OP_PCHL:
		cpu.PC = cpu.HL()
	case isa.OP_ADD:
		cpu.A = fl.add(cpu.A, cpu.register(inst.Dst), false)
	case isa.OP_ADC:
		cpu.A = fl.add(cpu.A, cpu.register(inst.Dst), fl.CY)
	case isa.OP_SUB:
		cpu.A = fl.sub(cpu.A, cpu.register(inst.Dst), false)
	case isa.OP_SBB:
		cpu.A = fl.sub(cpu.A, cpu.register(inst.Dst), fl.CY)
	case isa.OP_ADI:
		cpu.A = fl.add(cpu.A, d8, false)
	case isa.OP_ACI:
		cpu.A = fl.add(cpu.A, d8, fl.CY)
	case isa.OP_SUI:
		cpu.A = fl.sub(cpu.A, d8, false)
	case isa.OP_SBI:
		cpu.A = fl.sub(cpu.A, d8, fl.CY)
	case isa.OP_INR:
		value := cpu.register(inst.Dst)
		fl.AC = value&0x0f == 0x0f
		value++
		fl.setSZP(value)
		cpu.setRegister(inst.Dst, value)
	case isa.OP_DCR:
		value := cpu.register(inst.Dst)
		fl.AC = value&0x0f == 0x00
		value--
		fl.setSZP(value)
		cpu.setRegister(inst.Dst, value)
	case isa.OP_INX:
		cpu.setPair(inst.Pair, cpu.pair(inst.Pair)+1)
	case isa.OP_DCX:
		cpu.setPair(inst.Pair, cpu.pair(inst.Pair)-1)
	case isa.OP_DAD:
		sum := uint32(cpu.HL()) + uint32(cpu.pair(inst.Pair))
		fl.CY = sum > 0xffff
		cpu.setPair(isa.PAIR_H, uint16(sum))
	case isa.OP_DAA:
		cpu.daa()
	case isa.OP_ANA:
		cpu.logical(cpu.A&cpu.register(inst.Dst), true)
	case isa.OP_ANI:
		cpu.logical(cpu.A&d8, true)
	case isa.OP_ORA:
		cpu.logical(cpu.A|cpu.register(inst.Dst), false)
	case isa.OP_ORI:
		cpu.logical(cpu.A|d8, false)
	case isa.OP_XRA:
		cpu.logical(cpu.A^cpu.register(inst.Dst), false)
	case isa.OP_XRI:
		cpu.logical(cpu.A^d8, false)
	case isa.OP_CMP:
		fl.sub(cpu.A, cpu.register(inst.Dst), false)
	case isa.OP_CPI:
		fl.sub(cpu.A, d8, false)
	case isa.OP_CMA:
		cpu.A = ^cpu.A
	case isa.OP_RLC:
		fl.CY = cpu.A&0x80 != 0
		cpu.A = cpu.A<<1 | cpu.A>>7
	case isa.OP_RRC:
		fl.CY = cpu.A&0x01 != 0
		cpu.A = cpu.A>>1 | cpu.A<<7
	case isa.OP_RAL:
		var cin byte
		if fl.CY {
			cin = 0x01
		}
		fl.CY = cpu.A&0x80 != 0
		cpu.A = cpu.A<<1 | cin
	case isa.OP_RAR:
		var cin byte
		if fl.CY {
			cin = 0x80
		}
		fl.CY = cpu.A&0x01 != 0
		cpu.A = cpu.A>>1 | cin
	case isa.OP_STC:
		fl.CY = true
	case isa.OP_CMC:
		fl.CY = !fl.CY
	case isa.OP_JMP:
		cpu.PC = d16
	case isa.OP_JCC:
		if taken = cpu.condition(inst.Cond); taken {
			cpu.PC = d16
		}
	case isa.OP_CALL:
		cpu.call(inst, d16)
	case isa.OP_CCC:
		if taken = cpu.condition(inst.Cond); taken {
			cpu.call(inst, d16)
		}
	case isa.OP_RET:
		cpu.ret()
	case isa.OP_RCC:
		if taken = cpu.condition(inst.Cond); taken {
			cpu.ret()
		}
	case isa.OP_RST:
		cpu.call(inst, uint16(inst.Vector)*8)
	case isa.OP_PUSH:
		cpu.push(cpu.pair(inst.Pair))
	case isa.OP_POP:
		cpu.setPair(inst.Pair, cpu.pop())
	case isa.OP_HLT:
		cpu.Halted = true
	}

	return
}
