package archive

import (
	"errors"

	"github.com/ezrec/lemurs/translate"
)

var f = translate.From

var (
	ErrClosed   = errors.New(f("archive: closed"))
	ErrNotFound = errors.New(f("archive: image not found"))
	ErrKey      = errors.New(f("archive: invalid key"))
)
