// Package dataset loads the clean CSV files the pipeline produced.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"indicadores/internal/etl"
	"indicadores/internal/etl/sources"
)

// ErrInvalidName is returned for dataset names that are not plain
// canonical sheet names, such as paths.
var ErrInvalidName = errors.New("invalid dataset name")

// Store reads clean tables by fixed name from a directory and keeps them
// until Reload is called.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]*etl.Table
}

// NewStore returns a store over dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, cache: map[string]*etl.Table{}}
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string { return s.dir }

// Get returns the clean table for name, reading it on first use. name
// must be a canonical sheet name.
func (s *Store) Get(name string) (*etl.Table, error) {
	if name == "" || etl.CanonicalColumn(name) != name {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.cache[name]; ok {
		return t, nil
	}
	path := filepath.Join(s.dir, name+".csv")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", etl.ErrSourceNotFound, path)
	}
	t, err := sources.ReadCSVTable(path, ',')
	if err != nil {
		return nil, err
	}
	s.cache[name] = t
	return t, nil
}

// Names lists the tables available in the directory, sorted.
func (s *Store) Names() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, strings.TrimSuffix(filepath.Base(p), ".csv"))
	}
	sort.Strings(names)
	return names, nil
}

// Reload drops every cached table. The next Get reads from disk again.
func (s *Store) Reload() {
	s.mu.Lock()
	s.cache = map[string]*etl.Table{}
	s.mu.Unlock()
}
