package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// ── Destination ────────────────────────────────────────────
// A Destination persists the validated records of one sheet.
// Every write replaces what the destination held for that sheet.

// Destination writes validated records to a target system.
type Destination interface {
	// Name identifies the destination in logs and run results.
	Name() string
	// Prepare is called once per run, before the first Write.
	Prepare(ctx context.Context) error
	// Write replaces the sheet's data with records, in schema field order.
	Write(ctx context.Context, sheet string, schema *Schema, records []Record) (int, error)
}

// ── CSV Destination ────────────────────────────────────────

// CSVWriter writes one <sheet>.csv file per sheet into Dir.
type CSVWriter struct {
	Dir string
}

// NewCSVWriter returns a writer targeting dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{Dir: dir}
}

func (w *CSVWriter) Name() string { return "csv" }

// Prepare creates the output directory.
func (w *CSVWriter) Prepare(_ context.Context) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir %s: %v", ErrWrite, w.Dir, err)
	}
	return nil
}

// Path returns the file a sheet is written to.
func (w *CSVWriter) Path(sheet string) string {
	return filepath.Join(w.Dir, sheet+".csv")
}

// Write writes the sheet to a temporary file and renames it into place,
// so readers never observe a half-written file.
func (w *CSVWriter) Write(ctx context.Context, sheet string, schema *Schema, records []Record) (int, error) {
	tmp, err := os.CreateTemp(w.Dir, "."+sheet+"-*.csv")
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrWrite, sheet, err)
	}
	defer os.Remove(tmp.Name())

	n, err := 0, tmp.Chmod(0o644)
	if err == nil {
		n, err = writeCSV(ctx, tmp, schema.FieldNames(), records)
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrWrite, sheet, err)
	}
	if err := os.Rename(tmp.Name(), w.Path(sheet)); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrWrite, sheet, err)
	}
	return n, nil
}

func writeCSV(ctx context.Context, f *os.File, columns []string, records []Record) (int, error) {
	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return 0, err
	}
	row := make([]string, len(columns))
	for i, rec := range records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		for j, c := range columns {
			row[j] = FormatValue(rec.Data[c])
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(records), cw.Error()
}
