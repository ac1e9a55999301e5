package reveal

import "errors"

// Sentinel kinds for reveal configuration errors.
var (
	ErrEmptyTable   = errors.New("breakpoint table is empty")
	ErrInvalidTable = errors.New("invalid breakpoint table")
	ErrUnknownMode  = errors.New("unknown progress mode")
	ErrNoGeometry   = errors.New("missing geometry for section")

	ErrUnknownSection = errors.New("unknown reveal section")
)
