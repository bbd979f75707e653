package io

import (
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/pkg/errors"
)

const (
	ROM_LIMIT = 0x10000 // Largest image that fits in memory.
)

// Rom holds the program image copied into memory on reset.
type Rom struct {
	Data []byte
}

// Defines returns an iter of defines for the rom.
func (rc *Rom) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"ROM_LIMIT": fmt.Sprintf("%#x", ROM_LIMIT),
	})
}

// ReadImage replaces the image with the contents of input.
func (rc *Rom) ReadImage(input io.Reader) (err error) {
	data, err := io.ReadAll(io.LimitReader(input, ROM_LIMIT+1))
	if err != nil {
		return errors.Wrap(err, "read image")
	}

	if len(data) > ROM_LIMIT {
		return errors.Wrapf(ErrImageTooLarge, "%d bytes", len(data))
	}

	rc.Data = data
	return
}

// WriteImage writes the image to output.
func (rc *Rom) WriteImage(output io.Writer) (err error) {
	_, err = output.Write(rc.Data)
	if err != nil {
		return errors.Wrap(err, "write image")
	}

	return
}
