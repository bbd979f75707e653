package cpu

import (
	"fmt"
)

const (
	REGISTER_COUNT = 16 // Registers per bank.
)

// RegisterFile holds the two register banks. A small register and a wide
// register with the same index are different storage.
type RegisterFile struct {
	Small [REGISTER_COUNT]uint8
	Wide  [REGISTER_COUNT]uint16
}

func checkRegister(reg CodeReg) {
	if int(reg) >= REGISTER_COUNT {
		panic(fmt.Sprintf("register index %d out of range", reg))
	}
}

// ReadSmall returns small register reg.
func (rf *RegisterFile) ReadSmall(reg CodeReg) uint8 {
	checkRegister(reg)
	return rf.Small[reg]
}

// WriteSmall sets small register reg.
func (rf *RegisterFile) WriteSmall(reg CodeReg, value uint8) {
	checkRegister(reg)
	rf.Small[reg] = value
}

// ReadWide returns wide register reg.
func (rf *RegisterFile) ReadWide(reg CodeReg) uint16 {
	checkRegister(reg)
	return rf.Wide[reg]
}

// WriteWide sets wide register reg.
func (rf *RegisterFile) WriteWide(reg CodeReg, value uint16) {
	checkRegister(reg)
	rf.Wide[reg] = value
}

// Read returns register reg of the bank selected by width.
func (rf *RegisterFile) Read(width CodeWidth, reg CodeReg) uint16 {
	if width == WIDTH_WIDE {
		return rf.ReadWide(reg)
	}
	return uint16(rf.ReadSmall(reg))
}

// Write sets register reg of the bank selected by width, truncating value
// to the width.
func (rf *RegisterFile) Write(width CodeWidth, reg CodeReg, value uint16) {
	if width == WIDTH_WIDE {
		rf.WriteWide(reg, value)
	} else {
		rf.WriteSmall(reg, uint8(value))
	}
}

// Reset zeros both banks.
func (rf *RegisterFile) Reset() {
	clear(rf.Small[:])
	clear(rf.Wide[:])
}
