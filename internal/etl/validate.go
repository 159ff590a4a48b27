package etl

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ── Validator ──────────────────────────────────────────────

// SchemaLookup resolves a canonical sheet name to its schema.
type SchemaLookup interface {
	Lookup(sheet string) (*Schema, bool)
}

// Validator checks tables row by row against their schemas.
type Validator struct {
	schemas SchemaLookup
	log     zerolog.Logger
}

// NewValidator returns a validator resolving schemas through lookup.
func NewValidator(lookup SchemaLookup, log zerolog.Logger) *Validator {
	return &Validator{schemas: lookup, log: log}
}

// ValidateSheet validates every record of t. A row with any failing field
// is excluded from the result and contributes one error per failing field.
func (v *Validator) ValidateSheet(t *Table) *ValidationResult {
	res := &ValidationResult{Sheet: t.Name, RowsRead: len(t.Records)}

	schema, ok := v.schemas.Lookup(t.Name)
	if !ok {
		res.Errors = []ValidationError{{
			RowIndex: 0,
			Field:    "sheet_name",
			Value:    t.Name,
			Message:  fmt.Sprintf("no hay un esquema definido para la hoja: %s", t.Name),
			Kind:     KindSchemaMissing,
		}}
		v.log.Error().Str("sheet", t.Name).Msg("no schema registered for sheet")
		return res
	}
	res.Schema = schema

	if len(schema.Aliases) > 0 {
		t = TransformTable(t, &RenameTransform{Mapping: schema.Aliases})
	}

	for _, rec := range t.Records {
		out, errs := validateRow(schema, t.Columns, rec)
		if len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			res.FailedRows++
			v.log.Debug().Str("sheet", t.Name).Int("row", rec.Index).Int("errors", len(errs)).Msg("row rejected")
			continue
		}
		res.Records = append(res.Records, out)
	}
	res.Valid = len(res.Errors) == 0 && len(res.Records) > 0

	ev := v.log.Info()
	if res.HasErrors() {
		ev = v.log.Warn()
	}
	ev.Str("sheet", t.Name).
		Str("entity", schema.Entity).
		Int("rows", res.RowsRead).
		Int("valid_rows", len(res.Records)).
		Int("errors", len(res.Errors)).
		Msg("sheet validated")
	return res
}

// ValidateAll validates every table of the workbook, in read order.
func (v *Validator) ValidateAll(wb *Workbook) []*ValidationResult {
	out := make([]*ValidationResult, 0, len(wb.Tables))
	for _, t := range wb.Tables {
		out = append(out, v.ValidateSheet(t))
	}
	return out
}

// ValidateRecord validates a single record against schema. Columns not
// declared in the schema are rejected in name order.
func ValidateRecord(schema *Schema, rec Record) (Record, []ValidationError) {
	columns := make([]string, 0, len(rec.Data))
	for k := range rec.Data {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return validateRow(schema, columns, rec)
}

func validateRow(schema *Schema, columns []string, rec Record) (Record, []ValidationError) {
	var errs []ValidationError
	out := Record{Index: rec.Index, Data: make(map[string]any, len(schema.Fields))}

	for _, f := range schema.Fields {
		raw := rec.Data[f.Name]
		val, msg := coerce(f, raw)
		if msg != "" {
			errs = append(errs, ValidationError{
				RowIndex: rec.Index,
				Field:    f.Name,
				Value:    raw,
				Message:  msg,
				Kind:     KindField,
			})
			continue
		}
		out.Data[f.Name] = val
	}

	for _, c := range columns {
		if _, ok := rec.Data[c]; !ok {
			continue
		}
		if _, ok := schema.Field(c); ok {
			continue
		}
		errs = append(errs, ValidationError{
			RowIndex: rec.Index,
			Field:    c,
			Value:    rec.Data[c],
			Message:  "campo no permitido",
			Kind:     KindUnknownField,
		})
	}

	if len(errs) > 0 {
		return Record{}, errs
	}
	return out, nil
}

// coerce converts v to the field's type and checks its constraints.
// It returns the accepted value, or a non-empty rejection message.
func coerce(f Field, v any) (any, string) {
	if IsNull(v) {
		if f.Required {
			return nil, "campo requerido"
		}
		return nil, ""
	}
	return convert(f, v)
}

func convert(f Field, v any) (any, string) {
	switch f.Type {
	case TypeString:
		var s string
		switch x := v.(type) {
		case string:
			s = strings.TrimSpace(x)
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			return nil, "se esperaba texto"
		}
		if s == "" {
			if f.Required {
				return nil, "no puede estar vacío"
			}
			return nil, ""
		}
		if f.Canon != nil {
			s = f.Canon(s)
		}
		return s, ""

	case TypeInteger:
		n, ok := number(v)
		if !ok && f.lenient() {
			return nil, ""
		}
		if !ok || n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, "se esperaba un número entero"
		}
		if msg := checkBounds(f, n); msg != "" {
			return nil, msg
		}
		return int64(n), ""

	case TypeFloat:
		n, ok := number(v)
		if !ok && f.lenient() {
			return nil, ""
		}
		if !ok {
			return nil, "se esperaba un número"
		}
		if msg := checkBounds(f, n); msg != "" {
			return nil, msg
		}
		if f.Decimals > 0 {
			n = round(n, f.Decimals)
		}
		return n, ""

	default:
		return nil, fmt.Sprintf("tipo de campo desconocido: %s", f.Type)
	}
}

// lenient optional fields drop values that are not numbers at all.
// Numbers outside the field's bounds are still rejected.
func (f Field) lenient() bool { return f.Lenient && !f.Required }

// number accepts normalized floats and numeric strings that slipped past
// normalization, such as values built by hand in callers.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		if f, ok := normalizeString(x).(float64); ok {
			return f, true
		}
	}
	return 0, false
}

func checkBounds(f Field, n float64) string {
	switch {
	case f.Min != nil && f.Max != nil && (n < *f.Min || n > *f.Max):
		return fmt.Sprintf("debe estar entre %s y %s", FormatValue(*f.Min), FormatValue(*f.Max))
	case f.Min != nil && n < *f.Min:
		return fmt.Sprintf("debe ser mayor o igual a %s", FormatValue(*f.Min))
	case f.Max != nil && n > *f.Max:
		return fmt.Sprintf("debe ser menor o igual a %s", FormatValue(*f.Max))
	}
	return ""
}

func round(n float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(n*p) / p
}
