package etl

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a validation error.
type ErrorKind string

const (
	KindField         ErrorKind = "field"
	KindUnknownField  ErrorKind = "unknown_field"
	KindSchemaMissing ErrorKind = "schema_missing"
)

// ValidationError is one rejection of one field of one row.
type ValidationError struct {
	RowIndex int       `json:"row"`
	Field    string    `json:"field"`
	Value    any       `json:"value"`
	Message  string    `json:"message"`
	Kind     ErrorKind `json:"kind"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("fila %d: %s = '%s' - %s", e.RowIndex, e.Field, FormatValue(e.Value), e.Message)
}

// Unwrap lets callers test the class with errors.Is.
func (e ValidationError) Unwrap() error {
	if e.Kind == KindSchemaMissing {
		return ErrSchemaMissing
	}
	return ErrFieldValidation
}

// SheetStatus refines the valid bit of a ValidationResult.
type SheetStatus string

const (
	StatusValid         SheetStatus = "valid"
	StatusDegraded      SheetStatus = "degraded" // some rows passed, some failed
	StatusEmpty         SheetStatus = "empty"    // no row passed
	StatusSchemaMissing SheetStatus = "schema_missing"
)

// ValidationResult is the per-sheet outcome of validation.
type ValidationResult struct {
	Sheet      string            `json:"sheet"`
	Schema     *Schema           `json:"-"`
	Valid      bool              `json:"valid"`
	Records    []Record          `json:"records"`
	Errors     []ValidationError `json:"errors"`
	RowsRead   int               `json:"rowsRead"`
	FailedRows int               `json:"failedRows"`
}

// Status derives the sheet status from the result.
func (r *ValidationResult) Status() SheetStatus {
	switch {
	case r.Schema == nil:
		return StatusSchemaMissing
	case len(r.Records) == 0:
		return StatusEmpty
	case len(r.Errors) > 0:
		return StatusDegraded
	default:
		return StatusValid
	}
}

// HasErrors reports whether any error was collected.
func (r *ValidationResult) HasErrors() bool { return len(r.Errors) > 0 }

const summaryErrorLimit = 5

// ErrorSummary renders the error count and the first few errors.
func (r *ValidationResult) ErrorSummary() string {
	if len(r.Errors) == 0 {
		return "Sin errores"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Total de errores: %d", len(r.Errors))
	for i, e := range r.Errors {
		if i == summaryErrorLimit {
			break
		}
		fmt.Fprintf(&b, "\n  Fila %d: %s = '%s' - %s", e.RowIndex, e.Field, FormatValue(e.Value), e.Message)
	}
	if extra := len(r.Errors) - summaryErrorLimit; extra > 0 {
		fmt.Fprintf(&b, "\n  ... y %d errores más", extra)
	}
	return b.String()
}

// Summary renders the validation report for a whole run.
func Summary(results []*ValidationResult) string {
	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		}
	}

	var b strings.Builder
	b.WriteString("=== RESUMEN DE VALIDACIÓN ===\n")
	fmt.Fprintf(&b, "Total de hojas: %d\n", len(results))
	fmt.Fprintf(&b, "Hojas válidas: %d\n", valid)
	fmt.Fprintf(&b, "Hojas con errores: %d\n", len(results)-valid)
	for _, r := range results {
		label := "VÁLIDA"
		if !r.Valid {
			label = "CON ERRORES"
		}
		fmt.Fprintf(&b, "\n%s: %s (%d/%d filas)\n", r.Sheet, label, len(r.Records), r.RowsRead)
		if r.HasErrors() {
			for _, line := range strings.Split(r.ErrorSummary(), "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	return b.String()
}
