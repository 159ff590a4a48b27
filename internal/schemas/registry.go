// Package schemas holds the validation schema of every indicator sheet.
package schemas

import (
	"sort"

	"indicadores/internal/etl"
)

// Registry maps canonical sheet names to schemas. It is built once and
// read-only afterwards.
type Registry struct {
	order   []string
	schemas map[string]*etl.Schema
	aliases map[string]string
}

// New returns a registry holding the given schemas, keyed by Schema.Sheet.
func New(schemas ...*etl.Schema) *Registry {
	r := &Registry{schemas: map[string]*etl.Schema{}, aliases: map[string]string{}}
	for _, s := range schemas {
		key := etl.CanonicalColumn(s.Sheet)
		if _, dup := r.schemas[key]; !dup {
			r.order = append(r.order, key)
		}
		r.schemas[key] = s
	}
	return r
}

// Default returns the registry of the eleven indicator entities, with the
// legacy sheet names mapped onto them.
func Default() *Registry {
	r := New(catalogue()...)
	for alias, sheet := range sheetAliases {
		r.aliases[alias] = sheet
	}
	return r
}

// Lookup resolves a sheet name, canonical or legacy, to its schema.
func (r *Registry) Lookup(sheet string) (*etl.Schema, bool) {
	key := etl.CanonicalColumn(sheet)
	if s, ok := r.schemas[key]; ok {
		return s, true
	}
	if target, ok := r.aliases[key]; ok {
		s, ok := r.schemas[target]
		return s, ok
	}
	return nil, false
}

// Schemas returns every schema in registration order.
func (r *Registry) Schemas() []*etl.Schema {
	out := make([]*etl.Schema, len(r.order))
	for i, k := range r.order {
		out[i] = r.schemas[k]
	}
	return out
}

// Sheets returns the canonical sheet names in registration order.
func (r *Registry) Sheets() []string {
	return append([]string(nil), r.order...)
}

// Aliases returns the legacy sheet names that resolve to sheet, sorted.
func (r *Registry) Aliases(sheet string) []string {
	var out []string
	for alias, target := range r.aliases {
		if target == sheet {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
