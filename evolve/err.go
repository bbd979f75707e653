package evolve

import (
	"errors"

	"github.com/ezrec/lemurs/translate"
)

var f = translate.From

var (
	ErrNoParents = errors.New(f("no parent programs"))
)
