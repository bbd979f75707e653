// Package io provides the program loader and output sinks of the lemurs
// machine. A sink receives the values of the output and outputw
// instructions in emission order; it never blocks the machine beyond the
// cost of its own buffering.
package io

import (
	"iter"
)

// Sink defines the interface for all output sinks.
type Sink interface {
	// SendByte receives the value of an output instruction.
	SendByte(value uint8) error
	// SendWord receives the value of an outputw instruction.
	SendWord(value uint16) error
}

// Sample is a single emitted value.
type Sample struct {
	Wide  bool   // Emitted by outputw.
	Value uint16 // Emitted value.
}

// Record is a Sink that keeps every sample in memory.
type Record struct {
	Limit   int      // If non-zero, the maximum number of samples kept.
	Samples []Sample // Samples in emission order.
}

var _ Sink = (*Record)(nil)

// Reset drops all recorded samples.
func (rc *Record) Reset() {
	rc.Samples = rc.Samples[:0]
}

func (rc *Record) add(sample Sample) (err error) {
	if rc.Limit > 0 && len(rc.Samples) >= rc.Limit {
		err = ErrRecordFull
		return
	}

	rc.Samples = append(rc.Samples, sample)
	return
}

// SendByte records a small sample.
func (rc *Record) SendByte(value uint8) error {
	return rc.add(Sample{Value: uint16(value)})
}

// SendWord records a wide sample.
func (rc *Record) SendWord(value uint16) error {
	return rc.add(Sample{Wide: true, Value: value})
}

// Values iterates over the recorded values.
func (rc *Record) Values() iter.Seq[uint16] {
	return func(yield func(value uint16) bool) {
		for _, sample := range rc.Samples {
			if !yield(sample.Value) {
				return
			}
		}
	}
}
