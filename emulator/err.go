package emulator

import (
	"errors"

	"github.com/ezrec/lemurs/translate"
)

var f = translate.From

var (
	ErrStepBudget = errors.New(f("step budget exhausted"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Ip     uint32
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("ip 0x%04x %v", err.Ip, err.Err)
	}
	return f("line %d ip 0x%04x %v", err.LineNo, err.Ip, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
