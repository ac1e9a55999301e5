package content

import "errors"

// ErrInvalidContent reports a content document that cannot drive the site.
var ErrInvalidContent = errors.New("invalid content")
