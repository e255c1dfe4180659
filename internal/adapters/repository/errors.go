package repository

import (
	"errors"

	"github.com/okian/sopmatch/internal/domain/model"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidReviewer   = model.ErrInvalidReviewer
	ErrDuplicateReviewer = errors.New("duplicate reviewer")
	ErrCapacityExceeded  = errors.New("reviewer at capacity")
	ErrNoLoad            = errors.New("reviewer has no load to release")
	ErrEmptyText         = errors.New("submission text is empty")
	ErrInvalidID         = errors.New("invalid submission id")
)
