package catalog

import "errors"

// Sentinel kinds for catalog loading.
var (
	ErrParse             = errors.New("catalog parse failed")
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
)
