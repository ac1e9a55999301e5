package leadgen

import "errors"

// ErrNotSettled means accepted submissions did not all reach storage in time.
var ErrNotSettled = errors.New("leads did not settle")
