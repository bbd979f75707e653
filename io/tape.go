package io

import (
	"fmt"
	"io"
	"iter"
	"maps"
)

// Tape writes emitted values as a raw byte stream: one byte per small
// value, two bytes, most significant first, per wide value.
type Tape struct {
	Output io.Writer

	written int
}

var _ Sink = (*Tape)(nil)

// Defines returns an iter of defines for the tape.
func (tc *Tape) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{})
}

// Written returns the number of bytes written since creation.
func (tc *Tape) Written() int {
	return tc.written
}

// SendByte writes a single byte.
func (tc *Tape) SendByte(value uint8) (err error) {
	return tc.write([]byte{value})
}

// SendWord writes a word, high byte first.
func (tc *Tape) SendWord(value uint16) (err error) {
	return tc.write([]byte{byte(value >> 8), byte(value)})
}

func (tc *Tape) write(data []byte) (err error) {
	if tc.Output == nil {
		return
	}

	n, err := tc.Output.Write(data)
	tc.written += n

	return
}

// Text writes one decimal value per line.
type Text struct {
	Output io.Writer
}

var _ Sink = (*Text)(nil)

// SendByte writes a small value.
func (tx *Text) SendByte(value uint8) (err error) {
	_, err = fmt.Fprintf(tx.Output, "%d\n", value)
	return
}

// SendWord writes a wide value.
func (tx *Text) SendWord(value uint16) (err error) {
	_, err = fmt.Fprintf(tx.Output, "%d\n", value)
	return
}
