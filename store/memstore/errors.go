package memstore

import "errors"

// ErrUnavailable is returned from every operation while fault injection is
// active.
var ErrUnavailable = errors.New("memstore unavailable")
