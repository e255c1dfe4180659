package matching

import "errors"

// ErrInvalidInput is returned for a non-positive top_k or malformed submission text.
var ErrInvalidInput = errors.New("invalid input")
