package output

import "errors"

var (
	ErrUnknownFormat   = errors.New("unknown output format")
	ErrUnsupportedType = errors.New("unsupported data type for table output")
)
