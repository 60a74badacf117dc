package foundation

import "errors"

// ErrNilFailure replaces a nil error passed to Err.
var ErrNilFailure = errors.New("foundation: failure without cause")
