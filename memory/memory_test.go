package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	assert.Equal(SIZE, mem.Size())

	value, err := mem.ReadByteAt(0xffff)
	assert.NoError(err)
	assert.Equal(uint8(0), value)
}

func TestMemory_Word(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()

	err := mem.WriteWordAt(0x1000, 0xbeef)
	assert.NoError(err)

	lo, _ := mem.ReadByteAt(0x1000)
	hi, _ := mem.ReadByteAt(0x1001)
	assert.Equal(uint8(0xef), lo)
	assert.Equal(uint8(0xbe), hi)

	word, err := mem.ReadWordAt(0x1000)
	assert.NoError(err)
	assert.Equal(uint16(0xbeef), word)
}

func TestMemory_Range(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()

	table := [](struct {
		name string
		op   func() error
	}){
		{"read_byte_end", func() error { _, err := mem.ReadByteAt(SIZE); return err }},
		{"read_byte_neg", func() error { _, err := mem.ReadByteAt(-1); return err }},
		{"write_byte_end", func() error { return mem.WriteByteAt(SIZE, 1) }},
		{"read_word_last", func() error { _, err := mem.ReadWordAt(0xffff); return err }},
		{"write_word_last", func() error { return mem.WriteWordAt(0xffff, 1) }},
		{"bytes_past_end", func() error { _, err := mem.Bytes(0xfffe, 3); return err }},
	}

	for _, entry := range table {
		err := entry.op()
		assert.ErrorIs(err, ErrAddressOutOfRange, entry.name)

		var addr *ErrAddress
		assert.True(errors.As(err, &addr), entry.name)
	}

	// Failed writes leave memory untouched.
	last, err := mem.ReadByteAt(0xffff)
	assert.NoError(err)
	assert.Equal(uint8(0), last)
}

func TestMemory_Load(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory()
	assert.NoError(mem.WriteByteAt(0x20, 0x55))

	err := mem.Load([]byte{1, 2, 3})
	assert.NoError(err)

	view, err := mem.Bytes(0, 4)
	assert.NoError(err)
	assert.Equal([]byte{1, 2, 3, 0}, view)

	value, _ := mem.ReadByteAt(0x20)
	assert.Equal(uint8(0), value)

	err = mem.Load(make([]byte, SIZE+1))
	assert.ErrorIs(err, ErrAddressOutOfRange)
}
