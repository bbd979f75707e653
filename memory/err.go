package memory

import (
	"errors"

	"github.com/ezrec/lemurs/translate"
)

var f = translate.From

var (
	// ErrAddressOutOfRange is returned for any access beyond the memory size.
	ErrAddressOutOfRange = errors.New(f("address out of range"))
)

// ErrAddress describes a faulting memory access.
type ErrAddress struct {
	Address int // First byte of the access.
	Width   int // Bytes accessed.
	Size    int // Memory size at the time of the access.
}

func (err *ErrAddress) Error() string {
	return f("address 0x%04x+%d beyond 0x%05x", err.Address, err.Width, err.Size)
}

func (err *ErrAddress) Unwrap() error {
	return ErrAddressOutOfRange
}
