package valueparser

import (
	"errors"
)

var (
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnparsableValue = errors.New("unparsable value")
	ErrUnsupportedType = errors.New("unsupported type")
)
