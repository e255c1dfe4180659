package logger

import "errors"

// Sentinel kinds for logger configuration errors.
var (
	ErrUnknownFormat = errors.New("unknown log format")
	ErrUnknownLevel  = errors.New("unknown log level")
)
