package scoring

import "errors"

// ErrInvalidWeights is returned for negative, non-finite or non-unit-sum weights.
var ErrInvalidWeights = errors.New("invalid weights")
