package etl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ── Job ────────────────────────────────────────────────────
// Orchestrates: source.Read → validate → destination.Write.

// Job holds the configuration for one pipeline run.
type Job struct {
	SourceType string       `json:"sourceType"`
	SourceCfg  SourceConfig `json:"sourceConfig"`
	// WritePartial writes the passing rows of sheets that had errors.
	WritePartial bool `json:"writePartial"`
	// DryRun stops after validation.
	DryRun bool `json:"dryRun"`
}

// Run statuses.
const (
	RunSuccess = "success"
	RunError   = "error"
)

// SheetOutput is one successful write of one sheet to one destination.
type SheetOutput struct {
	Sheet       string `json:"sheet"`
	Destination string `json:"destination"`
	Rows        int    `json:"rows"`
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	ID         string              `json:"id"`
	Source     string              `json:"source"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
	Duration   time.Duration       `json:"duration"`
	Status     string              `json:"status"`
	Error      string              `json:"error,omitempty"`
	DryRun     bool                `json:"dryRun"`
	Workbook   *Workbook           `json:"-"`
	Sheets     []SheetInfo         `json:"sheets"`
	Skipped    []string            `json:"skipped,omitempty"`
	Results    []*ValidationResult `json:"results"`
	Outputs    []SheetOutput       `json:"outputs"`
}

// Result returns the validation result of a sheet, or nil.
func (r *RunResult) Result(sheet string) *ValidationResult {
	for _, v := range r.Results {
		if v.Sheet == sheet {
			return v
		}
	}
	return nil
}

// ValidSheets counts sheets that passed validation.
func (r *RunResult) ValidSheets() int {
	n := 0
	for _, v := range r.Results {
		if v.Valid {
			n++
		}
	}
	return n
}

// RowsRead counts data rows across all validated sheets.
func (r *RunResult) RowsRead() int {
	n := 0
	for _, v := range r.Results {
		n += v.RowsRead
	}
	return n
}

// RowsWritten counts rows written per sheet, taking the largest count
// across destinations.
func (r *RunResult) RowsWritten() int {
	per := map[string]int{}
	for _, o := range r.Outputs {
		if o.Rows > per[o.Sheet] {
			per[o.Sheet] = o.Rows
		}
	}
	n := 0
	for _, rows := range per {
		n += rows
	}
	return n
}

// Summary renders the full processing report of the run.
func (r *RunResult) Summary() string {
	var b strings.Builder
	if r.Workbook != nil {
		b.WriteString(r.Workbook.Summary())
		b.WriteString("\n")
	}
	b.WriteString(Summary(r.Results))
	if len(r.Outputs) > 0 {
		b.WriteString("\n=== ARCHIVOS GENERADOS ===\n")
		outs := append([]SheetOutput(nil), r.Outputs...)
		sort.SliceStable(outs, func(i, j int) bool { return outs[i].Sheet < outs[j].Sheet })
		for _, o := range outs {
			fmt.Fprintf(&b, "%s -> %s: %d filas\n", o.Sheet, o.Destination, o.Rows)
		}
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\nError: %s\n", r.Error)
	}
	return b.String()
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs jobs using the registered sources, one validator and any
// number of destinations.
type Engine struct {
	Validator    *Validator
	Destinations []Destination
	Log          zerolog.Logger
}

// Run executes a job end-to-end. Sheet-level read failures and validation
// errors are reported in the result. A missing source, a source with no
// readable sheet, and any write failure abort the run with an error.
func (e *Engine) Run(ctx context.Context, job Job) (*RunResult, error) {
	res := &RunResult{
		ID:        uuid.NewString(),
		Source:    job.SourceType,
		StartedAt: time.Now(),
		DryRun:    job.DryRun,
	}
	log := e.Log.With().Str("run", res.ID).Logger()

	fail := func(err error) (*RunResult, error) {
		res.Status = RunError
		res.Error = err.Error()
		res.FinishedAt = time.Now()
		res.Duration = res.FinishedAt.Sub(res.StartedAt)
		log.Error().Err(err).Dur("duration", res.Duration).Msg("run failed")
		return res, err
	}

	// 1. Resolve source from registry.
	source, err := GetSource(job.SourceType)
	if err != nil {
		return fail(err)
	}

	// 2. Read every sheet.
	wb, err := source.Read(ctx, job.SourceCfg)
	if err != nil {
		return fail(fmt.Errorf("read: %w", err))
	}
	res.Workbook = wb
	for _, s := range wb.Skipped {
		res.Skipped = append(res.Skipped, s.Name)
		if errors.Is(s.Err, ErrEmptySheet) {
			log.Warn().Str("sheet", s.Name).Msg("sheet is empty, skipped")
			continue
		}
		log.Error().Err(s.Err).Str("sheet", s.Name).Msg("sheet could not be read, skipped")
	}
	if len(wb.Tables) == 0 {
		return fail(fmt.Errorf("%w: %s", ErrNoSheets, wb.Path))
	}
	res.Sheets = wb.Info()
	log.Info().Str("path", wb.Path).Int("sheets", len(wb.Tables)).Msg("workbook read")

	// 3. Validate.
	for _, t := range wb.Tables {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		res.Results = append(res.Results, e.Validator.ValidateSheet(t))
	}

	// 4. Write.
	if !job.DryRun {
		if err := e.write(ctx, job, res, log); err != nil {
			return fail(err)
		}
	}

	res.Status = RunSuccess
	res.FinishedAt = time.Now()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)
	log.Info().
		Int("sheets", len(res.Results)).
		Int("valid_sheets", res.ValidSheets()).
		Int("rows_read", res.RowsRead()).
		Int("rows_written", res.RowsWritten()).
		Dur("duration", res.Duration).
		Msg("run finished")
	return res, nil
}

func (e *Engine) write(ctx context.Context, job Job, res *RunResult, log zerolog.Logger) error {
	for _, d := range e.Destinations {
		if err := d.Prepare(ctx); err != nil {
			return fmt.Errorf("prepare %s: %w", d.Name(), err)
		}
	}
	for _, r := range res.Results {
		if len(r.Records) == 0 {
			continue
		}
		if !r.Valid && !job.WritePartial {
			log.Warn().Str("sheet", r.Sheet).Msg("sheet has errors, not written")
			continue
		}
		for _, d := range e.Destinations {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := d.Write(ctx, r.Sheet, r.Schema, r.Records)
			if err != nil {
				return fmt.Errorf("write %s to %s: %w", r.Sheet, d.Name(), err)
			}
			res.Outputs = append(res.Outputs, SheetOutput{Sheet: r.Sheet, Destination: d.Name(), Rows: n})
			log.Info().Str("sheet", r.Sheet).Str("destination", d.Name()).Int("rows", n).Msg("sheet written")
		}
	}
	return nil
}
