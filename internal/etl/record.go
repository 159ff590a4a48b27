package etl

import (
	"fmt"
	"sort"
	"strings"
)

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// Sources emit Tables of Records, the Validator turns them into
// validated Records, destinations consume those.

// FieldType is the declared type of a schema field.
type FieldType string

const (
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeString  FieldType = "string"
)

// Field describes a single column of an entity schema.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Min      *float64  `json:"min,omitempty"` // inclusive
	Max      *float64  `json:"max,omitempty"` // inclusive
	Decimals int       `json:"decimals,omitempty"`
	// Lenient optional fields become null when the value cannot be coerced
	// instead of failing the row.
	Lenient bool `json:"lenient,omitempty"`
	// Canon rewrites an accepted string into its canonical spelling.
	Canon func(string) string `json:"-"`
}

// Limit returns a pointer to v, for Field.Min and Field.Max literals.
func Limit(v float64) *float64 { return &v }

// Schema is the validation schema bound to one worksheet.
type Schema struct {
	Entity string  `json:"entity"`
	Sheet  string  `json:"sheet"`
	Fields []Field `json:"fields"`
	// Aliases maps legacy column names to the field they stand for.
	Aliases map[string]string `json:"aliases,omitempty"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Record is a single row of data flowing through the pipeline.
// Index is the row's 0-based position among the sheet's data rows and
// survives row dropping, so error reports point back at the source.
type Record struct {
	Index int            `json:"index"`
	Data  map[string]any `json:"data"`
}

// ── Table ──────────────────────────────────────────────────

// Table is one worksheet after reading and normalization.
type Table struct {
	Name    string   `json:"name"`   // canonical sheet name
	Source  string   `json:"source"` // worksheet name as found in the workbook
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// SheetInfo is the shape summary of one table.
type SheetInfo struct {
	Name       string         `json:"name"`
	Source     string         `json:"source"`
	Rows       int            `json:"rows"`
	Columns    []string       `json:"columns"`
	NullCounts map[string]int `json:"nullCounts"`
}

// Info computes the table's shape summary.
func (t *Table) Info() SheetInfo {
	nulls := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		nulls[c] = 0
	}
	for _, r := range t.Records {
		for _, c := range t.Columns {
			if r.Data[c] == nil {
				nulls[c]++
			}
		}
	}
	return SheetInfo{
		Name:       t.Name,
		Source:     t.Source,
		Rows:       len(t.Records),
		Columns:    append([]string(nil), t.Columns...),
		NullCounts: nulls,
	}
}

// SkippedSheet records a worksheet the reader could not turn into a table.
type SkippedSheet struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// Workbook is everything a source produced in one read.
type Workbook struct {
	Path    string         `json:"path"`
	Tables  []*Table       `json:"tables"`
	Skipped []SkippedSheet `json:"skipped,omitempty"`
}

// Table returns the table with the given canonical name, or nil.
func (w *Workbook) Table(name string) *Table {
	for _, t := range w.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Info returns the shape summary of every table, in read order.
func (w *Workbook) Info() []SheetInfo {
	out := make([]SheetInfo, len(w.Tables))
	for i, t := range w.Tables {
		out[i] = t.Info()
	}
	return out
}

// Summary renders the reader report: one block per table with its row
// and column counts and the columns holding nulls.
func (w *Workbook) Summary() string {
	var b strings.Builder
	b.WriteString("=== RESUMEN DE HOJAS ===\n")
	for _, info := range w.Info() {
		fmt.Fprintf(&b, "\n%s:\n", info.Name)
		fmt.Fprintf(&b, "  Filas: %d\n", info.Rows)
		fmt.Fprintf(&b, "  Columnas: %d\n", len(info.Columns))
		fmt.Fprintf(&b, "  Nombres de columnas: %s\n", strings.Join(info.Columns, ", "))

		var withNulls []string
		for _, c := range info.Columns {
			if n := info.NullCounts[c]; n > 0 {
				withNulls = append(withNulls, fmt.Sprintf("%s=%d", c, n))
			}
		}
		if len(withNulls) > 0 {
			fmt.Fprintf(&b, "  Valores nulos: %s\n", strings.Join(withNulls, ", "))
		}
	}
	if len(w.Skipped) > 0 {
		names := make([]string, len(w.Skipped))
		for i, s := range w.Skipped {
			names[i] = s.Name
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "\nHojas omitidas: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}
