package etl

import "errors"

var (
	// ErrSourceNotFound means the workbook (or source directory) does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrUnknownSource means no source is registered under the requested type.
	ErrUnknownSource = errors.New("unknown source type")
	// ErrNoSheets means the source opened but no sheet could be turned into a table.
	ErrNoSheets = errors.New("no sheets could be read")
	// ErrSheetRead wraps a failure reading one sheet. It is never fatal to a run.
	ErrSheetRead = errors.New("sheet read failed")
	// ErrEmptySheet marks a sheet left with no rows after dropping empty ones.
	ErrEmptySheet = errors.New("sheet is empty")
	// ErrSchemaMissing means no schema is registered for a sheet name.
	ErrSchemaMissing = errors.New("schema missing")
	// ErrFieldValidation is the class of every per-field rejection.
	ErrFieldValidation = errors.New("field validation failed")
	// ErrWrite wraps output failures, which abort the run.
	ErrWrite = errors.New("write failed")
)
