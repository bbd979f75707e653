package config

import (
	"errors"

	"github.com/ezrec/lemurs/translate"
)

var f = translate.From

var (
	ErrInvalid = errors.New(f("invalid configuration value"))
)
