package artwork

import "errors"

// ErrNotFound indicates no catalog entry matched.
var ErrNotFound = errors.New("artwork not found")
