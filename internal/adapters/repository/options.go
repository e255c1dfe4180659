package repository

import (
	"time"

	"github.com/okian/sopmatch/pkg/logger"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// StoreOption applies a configuration option to a submission store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	now func() time.Time
}

func defaultStoreOptions() storeOptions {
	return storeOptions{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}
