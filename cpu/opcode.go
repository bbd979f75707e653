package cpu

import (
	"encoding/binary"
	"fmt"
)

// CodeClass is the instruction shape selected by the opcode byte.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	OP_OUTPUT    = CodeClass(0)  // output
	OP_OUTPUTW   = CodeClass(1)  // outputw
	OP_LOADMEM   = CodeClass(2)  // loadmem
	OP_LOADMEMW  = CodeClass(3)  // loadmemw
	OP_STOREMEM  = CodeClass(4)  // storemem
	OP_STOREMEMW = CodeClass(5)  // storememw
	OP_JMP       = CodeClass(6)  // jmp
	OP_JO        = CodeClass(7)  // jo
	OP_ALU       = CodeClass(8)  // alu
	OP_ALUW      = CodeClass(9)  // aluw
	OP_ALUIMM    = CodeClass(10) // aluimm
	OP_ALUIMMW   = CodeClass(11) // aluimmw
)

// CodeAluOp is an ALU operation selector.
type CodeAluOp int

//go:generate go tool stringer -linecomment -type=CodeAluOp
const (
	ALU_OP_COPY     = CodeAluOp(0)  // copy
	ALU_OP_NOT      = CodeAluOp(1)  // not
	ALU_OP_NEG      = CodeAluOp(2)  // neg
	ALU_OP_REVERSE  = CodeAluOp(3)  // reverse
	ALU_OP_NUMONES  = CodeAluOp(4)  // numones
	ALU_OP_NUMZEROS = CodeAluOp(5)  // numzeros
	ALU_OP_AND      = CodeAluOp(6)  // and
	ALU_OP_OR       = CodeAluOp(7)  // or
	ALU_OP_XOR      = CodeAluOp(8)  // xor
	ALU_OP_SHL      = CodeAluOp(9)  // shl
	ALU_OP_SHLM     = CodeAluOp(10) // shlm
	ALU_OP_SHR      = CodeAluOp(11) // shr
	ALU_OP_SHRM     = CodeAluOp(12) // shrm
	ALU_OP_ROTL     = CodeAluOp(13) // rotl
	ALU_OP_ROTR     = CodeAluOp(14) // rotr
	ALU_OP_ADDC     = CodeAluOp(15) // addc
	ALU_OP_ADDM     = CodeAluOp(16) // addm
	ALU_OP_SUBC     = CodeAluOp(17) // subc
	ALU_OP_SUBM     = CodeAluOp(18) // subm
	ALU_OP_ABSDIFF  = CodeAluOp(19) // absdiff
	ALU_OP_MULC     = CodeAluOp(20) // mulc
	ALU_OP_MULM     = CodeAluOp(21) // mulm
	ALU_OP_DIV      = CodeAluOp(22) // div
	ALU_OP_MOD      = CodeAluOp(23) // mod
	ALU_OP_POWM     = CodeAluOp(24) // powm
	ALU_OP_POWC     = CodeAluOp(25) // powc
	ALU_OP_GT       = CodeAluOp(26) // gt
	ALU_OP_GE       = CodeAluOp(27) // ge
	ALU_OP_LT       = CodeAluOp(28) // lt
	ALU_OP_LE       = CodeAluOp(29) // le
)

// Selectors 30 and 31 are unassigned.
const ALU_OP_LIMIT = CodeAluOp(30)

// Valid returns true if the selector names an ALU operation.
func (op CodeAluOp) Valid() bool {
	return op >= 0 && op < ALU_OP_LIMIT
}

// CodeWidth is an operand width.
type CodeWidth int

//go:generate go tool stringer -linecomment -type=CodeWidth
const (
	WIDTH_SMALL = CodeWidth(0) // small
	WIDTH_WIDE  = CodeWidth(1) // wide
)

// Max returns the largest value representable at the width.
func (width CodeWidth) Max() uint16 {
	if width == WIDTH_WIDE {
		return 0xffff
	}
	return 0xff
}

// Bits returns the number of bits at the width.
func (width CodeWidth) Bits() uint16 {
	if width == WIDTH_WIDE {
		return 16
	}
	return 8
}

// CodeReg is a register index, 0 to 15, within the bank selected by the
// instruction.
type CodeReg uint8

// String returns the assembler name of the register.
func (reg CodeReg) String() string {
	return fmt.Sprintf("r%d", uint8(reg))
}

// Code is a single decoded instruction.
type Code struct {
	Class CodeClass // Instruction shape.
	Op    CodeAluOp // ALU selector, for the ALU classes.
	A     CodeReg   // Register nibble; the destination of ALU classes.
	B     CodeReg   // Low nibble of the ALU operand byte.
	Addr  uint16    // Memory address or jump target.
	Imm   uint16    // Literal of the immediate classes.
}

// ClassOf returns the instruction shape selected by an opcode byte.
// Every byte value selects exactly one class.
func ClassOf(opcode byte) CodeClass {
	if opcode < 0x80 {
		return CodeClass(opcode >> 4)
	}

	return OP_ALU + CodeClass((opcode>>5)-0b100)
}

// Len returns the encoded length, in bytes, of the class.
func (class CodeClass) Len() int {
	switch class {
	case OP_OUTPUT, OP_OUTPUTW:
		return 1
	case OP_LOADMEM, OP_LOADMEMW, OP_STOREMEM, OP_STOREMEMW, OP_JMP, OP_JO:
		return 3
	case OP_ALU, OP_ALUW:
		return 2
	case OP_ALUIMM:
		return 3
	case OP_ALUIMMW:
		return 4
	}

	return 0
}

// IsAlu returns true for the four ALU classes.
func (class CodeClass) IsAlu() bool {
	return class >= OP_ALU && class <= OP_ALUIMMW
}

// Len returns the encoded length of the instruction.
func (code Code) Len() int {
	return code.Class.Len()
}

// Width returns the register bank the instruction operates on.
func (code Code) Width() CodeWidth {
	switch code.Class {
	case OP_OUTPUTW, OP_LOADMEMW, OP_STOREMEMW, OP_ALUW, OP_ALUIMMW:
		return WIDTH_WIDE
	}

	return WIDTH_SMALL
}

// Decode decodes the instruction at the start of window.
// The window must hold at least the bytes the instruction needs.
func Decode(window []byte) (code Code, err error) {
	if len(window) == 0 {
		err = ErrTruncatedInstruction
		return
	}

	opcode := window[0]
	code.Class = ClassOf(opcode)

	if code.Class.IsAlu() {
		code.Op = CodeAluOp(opcode & 0x1f)
		if !code.Op.Valid() {
			err = ErrInvalidOperation
			return
		}
	} else {
		code.A = CodeReg(opcode & 0xf)
	}

	if len(window) < code.Len() {
		err = ErrTruncatedInstruction
		return
	}

	switch code.Class {
	case OP_OUTPUT, OP_OUTPUTW:
		// pass
	case OP_LOADMEM, OP_LOADMEMW, OP_STOREMEM, OP_STOREMEMW, OP_JMP, OP_JO:
		code.Addr = binary.LittleEndian.Uint16(window[1:3])
	case OP_ALU, OP_ALUW, OP_ALUIMM, OP_ALUIMMW:
		code.A = CodeReg(window[1] >> 4)
		code.B = CodeReg(window[1] & 0xf)
		switch code.Class {
		case OP_ALUIMM:
			code.Imm = uint16(window[2])
		case OP_ALUIMMW:
			code.Imm = binary.LittleEndian.Uint16(window[2:4])
		}
	}

	return
}

// Bytes returns the encoding of the instruction.
func (code Code) Bytes() (data []byte) {
	data = make([]byte, code.Len())

	if code.Class.IsAlu() {
		data[0] = byte(0b100+(code.Class-OP_ALU))<<5 | byte(code.Op&0x1f)
		data[1] = byte(code.A&0xf)<<4 | byte(code.B&0xf)
		switch code.Class {
		case OP_ALUIMM:
			data[2] = byte(code.Imm)
		case OP_ALUIMMW:
			binary.LittleEndian.PutUint16(data[2:4], code.Imm)
		}
		return
	}

	data[0] = byte(code.Class)<<4 | byte(code.A&0xf)
	if len(data) == 3 {
		binary.LittleEndian.PutUint16(data[1:3], code.Addr)
	}

	return
}

// MakeCodeOutput creates an output instruction for a register of width.
func MakeCodeOutput(width CodeWidth, reg CodeReg) Code {
	class := OP_OUTPUT
	if width == WIDTH_WIDE {
		class = OP_OUTPUTW
	}
	return Code{Class: class, A: reg}
}

// MakeCodeLoad creates a memory to register instruction.
func MakeCodeLoad(width CodeWidth, reg CodeReg, addr uint16) Code {
	class := OP_LOADMEM
	if width == WIDTH_WIDE {
		class = OP_LOADMEMW
	}
	return Code{Class: class, A: reg, Addr: addr}
}

// MakeCodeStore creates a register to memory instruction.
func MakeCodeStore(width CodeWidth, reg CodeReg, addr uint16) Code {
	class := OP_STOREMEM
	if width == WIDTH_WIDE {
		class = OP_STOREMEMW
	}
	return Code{Class: class, A: reg, Addr: addr}
}

// MakeCodeJump creates an unconditional jump.
func MakeCodeJump(addr uint16) Code {
	return Code{Class: OP_JMP, Addr: addr}
}

// MakeCodeJumpOdd creates a jump taken when small register reg is odd.
func MakeCodeJumpOdd(reg CodeReg, addr uint16) Code {
	return Code{Class: OP_JO, A: reg, Addr: addr}
}

// MakeCodeAlu creates a register/register ALU instruction: a = op(a, b).
func MakeCodeAlu(width CodeWidth, op CodeAluOp, a, b CodeReg) Code {
	class := OP_ALU
	if width == WIDTH_WIDE {
		class = OP_ALUW
	}
	return Code{Class: class, Op: op, A: a, B: b}
}

// MakeCodeAluImm creates an immediate ALU instruction: dst = op(src, imm).
func MakeCodeAluImm(width CodeWidth, op CodeAluOp, dst, src CodeReg, imm uint16) Code {
	class := OP_ALUIMM
	if width == WIDTH_WIDE {
		class = OP_ALUIMMW
	} else {
		imm &= 0xff
	}
	return Code{Class: class, Op: op, A: dst, B: src, Imm: imm}
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	switch code.Class {
	case OP_OUTPUT, OP_OUTPUTW:
		out = fmt.Sprintf("%v %v", code.Class, code.A)
	case OP_LOADMEM, OP_LOADMEMW, OP_STOREMEM, OP_STOREMEMW, OP_JO:
		out = fmt.Sprintf("%v %v 0x%04x", code.Class, code.A, code.Addr)
	case OP_JMP:
		out = fmt.Sprintf("%v 0x%04x", code.Class, code.Addr)
	case OP_ALU:
		out = fmt.Sprintf("%v %v %v", code.Op, code.A, code.B)
	case OP_ALUW:
		out = fmt.Sprintf("%vw %v %v", code.Op, code.A, code.B)
	case OP_ALUIMM:
		out = fmt.Sprintf("%vimm %v %v %d", code.Op, code.A, code.B, code.Imm)
	case OP_ALUIMMW:
		out = fmt.Sprintf("%vimmw %v %v %d", code.Op, code.A, code.B, code.Imm)
	default:
		out = fmt.Sprintf("%v", code.Class)
	}

	return
}
