package etl

import "sort"

// ── Transformer ────────────────────────────────────────────
// Transformers rewrite records between reading and validation.
// Each takes a record and returns a (possibly modified) record and a
// boolean indicating whether to keep it.

// Transformer processes a single record.
// Returns (transformed record, keep). If keep is false, the record is dropped.
type Transformer interface {
	Transform(Record) (Record, bool)
}

// ColumnTransformer is implemented by transformers that change column
// names, so a table's column list can follow its records.
type ColumnTransformer interface {
	Columns([]string) []string
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(Record) (Record, bool)

func (f TransformerFunc) Transform(r Record) (Record, bool) { return f(r) }

// RenameTransform renames columns. Aliases are applied in name order and
// a target is claimed at most once: an alias whose target already exists
// keeps its own name, so the validator still sees it.
type RenameTransform struct {
	Mapping map[string]string // oldName → newName
}

func (t *RenameTransform) aliases() []string {
	keys := make([]string, 0, len(t.Mapping))
	for k := range t.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *RenameTransform) Transform(r Record) (Record, bool) {
	for _, old := range t.aliases() {
		v, ok := r.Data[old]
		if !ok {
			continue
		}
		target := t.Mapping[old]
		if _, taken := r.Data[target]; taken {
			continue
		}
		r.Data[target] = v
		delete(r.Data, old)
	}
	return r, true
}

func (t *RenameTransform) Columns(cols []string) []string {
	out := append([]string(nil), cols...)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	for _, old := range t.aliases() {
		i, ok := index[old]
		if !ok {
			continue
		}
		target := t.Mapping[old]
		if _, taken := index[target]; taken {
			continue
		}
		out[i] = target
		delete(index, old)
		index[target] = i
	}
	return out
}

// ── Helpers ────────────────────────────────────────────────

// ApplyTransformers runs a chain of transformers on a record.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}

// TransformTable runs the chain over copies of t's records and returns a
// new table. The input table is left untouched.
func TransformTable(t *Table, ts ...Transformer) *Table {
	out := &Table{Name: t.Name, Source: t.Source, Columns: append([]string(nil), t.Columns...)}
	for _, tr := range ts {
		if ct, ok := tr.(ColumnTransformer); ok {
			out.Columns = ct.Columns(out.Columns)
		}
	}
	out.Records = make([]Record, 0, len(t.Records))
	for _, rec := range t.Records {
		data := make(map[string]any, len(rec.Data))
		for k, v := range rec.Data {
			data[k] = v
		}
		if r, keep := ApplyTransformers(Record{Index: rec.Index, Data: data}, ts); keep {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
