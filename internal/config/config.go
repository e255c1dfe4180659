// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers .env, a YAML file and SOPMATCH_* environment variables on top.
// - Validate before use; errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/sopmatch/internal/domain/scoring"
)

// Supported submission store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoder: text, json or zap.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxTopK caps the top_k accepted by the match endpoints; 0 means no cap.
	MaxTopK int `koanf:"max_top_k"`

	// DefaultTopK is used when GET /matches/{id} omits top_k.
	DefaultTopK int `koanf:"default_top_k"`

	// CatalogPath points to a YAML, TOML or JSON reviewer catalog.
	// Empty means the embedded default catalog.
	CatalogPath string `koanf:"catalog_path"`

	// StoreDriver selects the submission store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// QueueSize bounds the batch match queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch match workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the assignment ledger; 0 means unbounded. A bound
	// below the catalog's total capacity fails start-up.
	DedupeSize int `koanf:"dedupe_size"`

	// NGramMax is the largest n-gram used as a text feature.
	NGramMax int `koanf:"ngram_max"`

	// StopWords enables English stop-word removal before vectorization.
	StopWords bool `koanf:"stop_words"`

	// Weights are the score fusion weights.
	Weights Weights `koanf:"weights"`
}

// Weights mirrors scoring.Weights for configuration files.
type Weights struct {
	Content      float64 `koanf:"content"`
	Expertise    float64 `koanf:"expertise"`
	Availability float64 `koanf:"availability"`
}

// Scoring converts the configured weights to the domain value object.
func (w Weights) Scoring() scoring.Weights {
	return scoring.Weights{Content: w.Content, Expertise: w.Expertise, Availability: w.Availability}
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	d := scoring.DefaultWeights()
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		MaxTopK:     0,
		DefaultTopK: 5,
		StoreDriver: StoreMemory,
		SQLitePath:  "data/sopmatch.db",
		QueueSize:   1024,
		WorkerCount: runtime.NumCPU(),
		DedupeSize:  0,
		NGramMax:    2,
		Weights: Weights{
			Content:      d.Content,
			Expertise:    d.Expertise,
			Availability: d.Availability,
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxTopK < 0:
		return fmt.Errorf("%w: max_top_k must not be negative, got %d", ErrInvalidConfig, c.MaxTopK)
	case c.DefaultTopK <= 0:
		return fmt.Errorf("%w: default_top_k must be positive, got %d", ErrInvalidConfig, c.DefaultTopK)
	case c.MaxTopK > 0 && c.DefaultTopK > c.MaxTopK:
		return fmt.Errorf("%w: default_top_k must be in [1, %d], got %d", ErrInvalidConfig, c.MaxTopK, c.DefaultTopK)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.NGramMax < 1 || c.NGramMax > 3:
		return fmt.Errorf("%w: ngram_max must be in [1, 3], got %d", ErrInvalidConfig, c.NGramMax)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	if err := c.Weights.Scoring().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
