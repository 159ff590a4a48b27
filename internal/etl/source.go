package etl

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ── Source ──────────────────────────────────────────────────
// A Source extracts worksheets from a workbook-like input.
// Implementations live in etl/sources/, one file per source type.

// SourceConfig is an opaque configuration map parsed per source type.
type SourceConfig map[string]any

// String returns the string value stored under key, or "".
func (c SourceConfig) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// ConfigField describes a single configuration input for a source.
type ConfigField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"` // "string" | "file" | "dir"
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
	Help     string `json:"help,omitempty"`
}

// SourceSpec describes a source type and its config fields.
type SourceSpec struct {
	Type         string        `json:"type"`
	Label        string        `json:"label"`
	ConfigFields []ConfigField `json:"configFields"`
}

// Source is the interface every data source must implement.
type Source interface {
	// Spec returns metadata about this source type.
	Spec() SourceSpec

	// Discover reports the shape of every readable sheet.
	Discover(ctx context.Context, cfg SourceConfig) ([]SheetInfo, error)

	// Read loads every sheet as a normalized table. Sheets that fail to
	// read, or are empty, are reported in Workbook.Skipped. A missing
	// input fails with ErrSourceNotFound.
	Read(ctx context.Context, cfg SourceConfig) (*Workbook, error)
}

// ── Source Registry ────────────────────────────────────────
// Each source file registers itself from init().

var (
	sourcesMu sync.RWMutex
	sources   = map[string]Source{}
)

// RegisterSource adds s under its declared type. It panics on an empty or
// duplicate type, both of which are programming errors.
func RegisterSource(s Source) {
	typ := s.Spec().Type
	sourcesMu.Lock()
	defer sourcesMu.Unlock()
	if typ == "" {
		panic("etl: source registered without a type")
	}
	if _, dup := sources[typ]; dup {
		panic("etl: source registered twice: " + typ)
	}
	sources[typ] = s
}

// GetSource looks up a source by type.
func GetSource(typ string) (Source, error) {
	sourcesMu.RLock()
	s, ok := sources[typ]
	sourcesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, typ)
	}
	return s, nil
}

// ListSources describes every registered source, sorted by type.
func ListSources() []SourceSpec {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	out := make([]SourceSpec, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.Spec())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
