package io

import (
	"errors"

	"github.com/ezrec/lemurs/translate"
)

var f = translate.From

var (
	// Sink errors
	ErrRecordFull = errors.New(f("record full"))

	// Loader errors
	ErrImageTooLarge = errors.New(f("image too large"))
)
