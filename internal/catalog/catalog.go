// Package catalog loads the reviewer seed catalog.
//
// The default catalog is embedded in the binary. An external catalog may be
// YAML (.yaml, .yml), TOML (.toml) or JSON (.json); all formats share the
// same layout: a top-level "reviewers" list.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/okian/sopmatch/internal/domain/model"
)

//go:embed reviewers.yaml
var defaultCatalog []byte

// Entry is one reviewer as written in a catalog file.
type Entry struct {
	ID          string   `koanf:"id" toml:"id" json:"id"`
	Name        string   `koanf:"name" toml:"name" json:"name"`
	Expertise   []string `koanf:"expertise" toml:"expertise" json:"expertise"`
	Notes       string   `koanf:"notes" toml:"notes" json:"notes"`
	MaxCapacity int      `koanf:"max_capacity" toml:"max_capacity" json:"max_capacity"`
	CurrentLoad int      `koanf:"current_load" toml:"current_load" json:"current_load"`
}

type document struct {
	Reviewers []Entry `toml:"reviewers" json:"reviewers"`
}

// Default returns the embedded catalog.
func Default() ([]model.Reviewer, error) {
	k := koanf.New(".")
	if err := k.Load(rawBytes(defaultCatalog), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: embedded: %w", ErrParse, err)
	}
	return fromKoanf(k, "embedded")
}

// Load reads the catalog at path, or the embedded catalog when path is empty.
// Every reviewer is validated; the first invalid record fails the load.
func Load(_ context.Context, path string) ([]model.Reviewer, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
		}
		return fromKoanf(k, path)
	case ".toml":
		return decodeFile(path, toml.Unmarshal)
	case ".json":
		return decodeFile(path, json.Unmarshal)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func fromKoanf(k *koanf.Koanf, source string) ([]model.Reviewer, error) {
	var entries []Entry
	if err := k.UnmarshalWithConf("reviewers", &entries, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, source, err)
	}
	return toReviewers(entries, source)
}

func decodeFile(path string, unmarshal func([]byte, any) error) ([]model.Reviewer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	var doc document
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return toReviewers(doc.Reviewers, path)
}

func toReviewers(entries []Entry, source string) ([]model.Reviewer, error) {
	out := make([]model.Reviewer, 0, len(entries))
	for i, e := range entries {
		r := model.Reviewer{
			ID:          strings.TrimSpace(e.ID),
			Name:        strings.TrimSpace(e.Name),
			Expertise:   e.Expertise,
			Notes:       e.Notes,
			MaxCapacity: e.MaxCapacity,
			CurrentLoad: e.CurrentLoad,
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", source, i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// rawBytes adapts an in-memory document to koanf.Provider.
type rawBytes []byte

func (b rawBytes) ReadBytes() ([]byte, error) { return b, nil }

func (b rawBytes) Read() (map[string]any, error) {
	return nil, ErrUnsupportedFormat
}
