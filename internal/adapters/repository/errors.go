package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrClosed   = errors.New("store closed")
	ErrOpen     = errors.New("open database")
)
