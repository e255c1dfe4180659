package model

import "errors"

// Sentinel kinds for model validation.
var (
	ErrInvalidReviewer = errors.New("invalid reviewer")
)
