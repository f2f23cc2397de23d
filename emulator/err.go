package emulator

import (
	"errors"

	"github.com/eightbitsim/eightbit/translate"
)

var f = translate.From

var (
	ErrClockRate = errors.New(f("clock rate must be positive"))
)
