package widget

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid widget config")
	ErrForeignOrigin  = errors.New("message from untrusted origin")
	ErrUnknownMessage = errors.New("unknown widget message")
)
