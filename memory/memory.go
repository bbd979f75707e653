// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory is the flat, byte addressable store of the lemurs machine.
package memory

import (
	"encoding/binary"

	"github.com/ezrec/lemurs/internal/log"
)

const (
	SIZE = 0x10000 // Every address a 16-bit pointer can name.
)

// Memory is a fixed size byte store with little-endian word access.
type Memory struct {
	Verbose bool // Log every write.

	data []byte
}

// NewMemory creates a zeroed memory of SIZE bytes.
func NewMemory() (mem *Memory) {
	mem = &Memory{
		data: make([]byte, SIZE),
	}

	return
}

// Size of the memory in bytes.
func (mem *Memory) Size() int {
	return len(mem.data)
}

// Reset zeros the memory.
func (mem *Memory) Reset() {
	clear(mem.data)
}

// Load copies an image to address 0, clearing the rest of memory.
func (mem *Memory) Load(image []byte) (err error) {
	err = mem.check(0, len(image))
	if err != nil {
		return
	}

	mem.Reset()
	copy(mem.data, image)

	return
}

// Bytes returns a view of count bytes starting at address.
// The view aliases the memory and is only valid until the next write.
func (mem *Memory) Bytes(address int, count int) (view []byte, err error) {
	err = mem.check(address, count)
	if err != nil {
		return
	}

	view = mem.data[address : address+count]
	return
}

// ReadByteAt reads the byte at address.
func (mem *Memory) ReadByteAt(address int) (value uint8, err error) {
	err = mem.check(address, 1)
	if err != nil {
		return
	}

	value = mem.data[address]
	return
}

// WriteByteAt writes the byte at address.
func (mem *Memory) WriteByteAt(address int, value uint8) (err error) {
	err = mem.check(address, 1)
	if err != nil {
		return
	}

	if mem.Verbose {
		log.Cpu.Debug().Msgf("mem: [%04x] = %02x", address, value)
	}
	mem.data[address] = value
	return
}

// ReadWordAt reads two bytes at address, low byte first.
func (mem *Memory) ReadWordAt(address int) (value uint16, err error) {
	err = mem.check(address, 2)
	if err != nil {
		return
	}

	value = binary.LittleEndian.Uint16(mem.data[address:])
	return
}

// WriteWordAt writes two bytes at address, low byte first.
func (mem *Memory) WriteWordAt(address int, value uint16) (err error) {
	err = mem.check(address, 2)
	if err != nil {
		return
	}

	if mem.Verbose {
		log.Cpu.Debug().Msgf("mem: [%04x] = %04x", address, value)
	}
	binary.LittleEndian.PutUint16(mem.data[address:], value)
	return
}

// check verifies that [address, address+width) lies inside memory.
func (mem *Memory) check(address int, width int) (err error) {
	if address < 0 || width < 0 || address+width > len(mem.data) {
		err = &ErrAddress{Address: address, Width: width, Size: len(mem.data)}
	}

	return
}
