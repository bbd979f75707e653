package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and
// generated instructions or data.
type Opcode struct {
	LineNo    int
	Ip        int
	Words     []string
	Codes     []Code
	Data      []byte
	LinkLabel string
}

// Len returns the number of image bytes the opcode occupies.
func (op *Opcode) Len() (size int) {
	for _, code := range op.Codes {
		size += code.Len()
	}
	size += len(op.Data)

	return
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug locates the opcode, and the code within it, that covers ip.
func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n := range prog.Opcodes {
		op := &prog.Opcodes[n]
		offset := op.Ip
		for index, code := range op.Codes {
			if int(ip) >= offset && int(ip) < offset+code.Len() {
				dbg = Debug{Opcode: op, Index: index}
				return
			}
			offset += code.Len()
		}
	}

	return
}

// Binary returns the memory image of the program.
func (prog *Program) Binary() (image []byte) {
	for _, op := range prog.Opcodes {
		for len(image) < op.Ip {
			image = append(image, 0)
		}
		for _, code := range op.Codes {
			image = append(image, code.Bytes()...)
		}
		image = append(image, op.Data...)
	}

	return
}

// Codes iterates over every instruction and its address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(ip uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			ip := op.Ip
			for _, code := range op.Codes {
				if !yield(uint16(ip), code) {
					return
				}
				ip += code.Len()
			}
		}
	}
}

// Listing is a single disassembled instruction.
type Listing struct {
	Ip   int
	Code Code
	Err  error
}

// Disassemble decodes an image from address 0. Undecodable bytes are
// reported as one byte entries with Err set, and decoding resumes at the
// next byte.
func Disassemble(image []byte) iter.Seq[Listing] {
	return func(yield func(listing Listing) bool) {
		for ip := 0; ip < len(image); {
			code, err := Decode(image[ip:min(ip+MAX_CODE_LEN, len(image))])
			listing := Listing{Ip: ip, Code: code, Err: err}
			if !yield(listing) {
				return
			}
			if err != nil {
				ip++
			} else {
				ip += code.Len()
			}
		}
	}
}
