package cpu

import (
	"math/bits"
	"strings"

	"github.com/ezrec/i8085/isa"
)

// Flags is the 8085 condition flag register.
type Flags struct {
	S  bool // Sign
	Z  bool // Zero
	AC bool // Auxiliary carry
	P  bool // Parity (even)
	CY bool // Carry
}

// Byte returns the flags in PSW layout: S Z 0 AC 0 P 1 CY.
func (fl Flags) Byte() (value byte) {
	value = 0x02
	for _, bit := range []struct {
		set  bool
		mask isa.FlagMask
	}{
		{fl.S, isa.FLAG_S}, {fl.Z, isa.FLAG_Z}, {fl.AC, isa.FLAG_AC}, {fl.P, isa.FLAG_P}, {fl.CY, isa.FLAG_CY},
	} {
		if bit.set {
			value |= byte(bit.mask)
		}
	}
	return
}

// FlagsOf decodes a PSW flag byte. Unused bits are ignored.
func FlagsOf(value byte) Flags {
	mask := isa.FlagMask(value)
	return Flags{
		S:  mask&isa.FLAG_S != 0,
		Z:  mask&isa.FLAG_Z != 0,
		AC: mask&isa.FLAG_AC != 0,
		P:  mask&isa.FLAG_P != 0,
		CY: mask&isa.FLAG_CY != 0,
	}
}

// Test returns the value of a single flag.
func (fl Flags) Test(flag isa.FlagMask) bool {
	return isa.FlagMask(fl.Byte())&flag != 0
}

func (fl Flags) String() string {
	var set []string
	for _, flag := range []struct {
		set  bool
		name string
	}{
		{fl.S, "S"}, {fl.Z, "Z"}, {fl.AC, "AC"}, {fl.P, "P"}, {fl.CY, "CY"},
	} {
		if flag.set {
			set = append(set, flag.name)
		}
	}
	return strings.Join(set, " ")
}

func parity(value byte) bool {
	return bits.OnesCount8(value)%2 == 0
}

// setSZP sets sign, zero and parity from a result.
func (fl *Flags) setSZP(value byte) {
	fl.S = value&0x80 != 0
	fl.Z = value == 0
	fl.P = parity(value)
}

// add computes a + b + carry, setting all flags.
func (fl *Flags) add(a, b byte, carry bool) byte {
	var cin int
	if carry {
		cin = 1
	}
	sum := int(a) + int(b) + cin
	fl.AC = int(a&0x0f)+int(b&0x0f)+cin > 0x0f
	fl.CY = sum > 0xff
	fl.setSZP(byte(sum))
	return byte(sum)
}

// sub computes a - b - borrow, setting all flags.
// CY is the borrow out of bit 7, AC the borrow out of bit 3.
func (fl *Flags) sub(a, b byte, borrow bool) byte {
	var bin int
	if borrow {
		bin = 1
	}
	diff := int(a) - int(b) - bin
	fl.AC = int(a&0x0f) < int(b&0x0f)+bin
	fl.CY = diff < 0
	fl.setSZP(byte(diff))
	return byte(diff)
}
