package site

import "errors"

// ErrCSRFKey is returned for a CSRF key that is not 32 bytes long.
var ErrCSRFKey = errors.New("csrf key must be 32 bytes")
