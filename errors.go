package tilefix

import (
	"errors"
)

// Kinds of failure. Returned errors wrap one of these, test with errors.Is.
var (
	// missing or malformed arguments
	ErrInvalidArguments = errors.New("invalid arguments")

	// the source path is not a readable regular file
	ErrSourceNotFound = errors.New("source not found")

	// zero sized tiles, negative margin or spacing
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	ErrDecode = errors.New("decode failed")
	ErrEncode = errors.New("encode failed")

	// the input was already produced by tilefix
	ErrAlreadyPadded = errors.New("already padded")
)
