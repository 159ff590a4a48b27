package storage

import (
	"fmt"
	"time"

	"indicadores/internal/etl"
)

// RunLog is a historical record of one pipeline run.
type RunLog struct {
	ID          string        `json:"id"`
	Source      string        `json:"source"`
	Path        string        `json:"path"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
	Duration    time.Duration `json:"duration"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	DryRun      bool          `json:"dryRun"`
	Sheets      int           `json:"sheets"`
	ValidSheets int           `json:"validSheets"`
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
}

// SheetLog is the stored outcome of one sheet in one run.
type SheetLog struct {
	RunID     string `json:"runId"`
	Sheet     string `json:"sheet"`
	Entity    string `json:"entity"`
	Status    string `json:"status"`
	Valid     bool   `json:"valid"`
	RowsRead  int    `json:"rowsRead"`
	ValidRows int    `json:"validRows"`
	Errors    int    `json:"errors"`
}

// ErrorLog is one stored field error.
type ErrorLog struct {
	RunID    string `json:"runId"`
	Sheet    string `json:"sheet"`
	RowIndex int    `json:"row"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Message  string `json:"message"`
	Kind     string `json:"kind"`
}

// RunStore manages the run history tables.
type RunStore struct {
	db *DB
}

func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// CreateRun stores a run with its per-sheet outcomes and field errors.
func (s *RunStore) CreateRun(res *etl.RunResult) error {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	path := ""
	if res.Workbook != nil {
		path = res.Workbook.Path
	}
	if _, err := tx.Exec(
		`INSERT INTO runs (id, source, path, started_at, finished_at, duration_ms, status, error, dry_run,
		                   sheets, valid_sheets, rows_read, rows_written)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Source, path, res.StartedAt, res.FinishedAt, res.Duration.Milliseconds(),
		res.Status, res.Error, res.DryRun,
		len(res.Results), res.ValidSheets(), res.RowsRead(), res.RowsWritten(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range res.Results {
		entity := ""
		if r.Schema != nil {
			entity = r.Schema.Entity
		}
		if _, err := tx.Exec(
			`INSERT INTO run_sheets (run_id, sheet, entity, status, valid, rows_read, valid_rows, errors)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			res.ID, r.Sheet, entity, string(r.Status()), r.Valid, r.RowsRead, len(r.Records), len(r.Errors),
		); err != nil {
			return fmt.Errorf("insert sheet %s: %w", r.Sheet, err)
		}
		for _, e := range r.Errors {
			if _, err := tx.Exec(
				`INSERT INTO run_errors (run_id, sheet, row_index, field, value, message, kind)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				res.ID, r.Sheet, e.RowIndex, e.Field, etl.FormatValue(e.Value), e.Message, string(e.Kind),
			); err != nil {
				return fmt.Errorf("insert error %s: %w", r.Sheet, err)
			}
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs first.
func (s *RunStore) ListRuns(limit int) ([]RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT id, source, path, started_at, finished_at, duration_ms, status, error, dry_run,
		        sheets, valid_sheets, rows_read, rows_written
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []RunLog
	for rows.Next() {
		var l RunLog
		var ms int64
		if err := rows.Scan(
			&l.ID, &l.Source, &l.Path, &l.StartedAt, &l.FinishedAt, &ms, &l.Status, &l.Error, &l.DryRun,
			&l.Sheets, &l.ValidSheets, &l.RowsRead, &l.RowsWritten,
		); err != nil {
			return nil, err
		}
		l.Duration = time.Duration(ms) * time.Millisecond
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListSheets returns the sheet outcomes of a run, in sheet name order.
func (s *RunStore) ListSheets(runID string) ([]SheetLog, error) {
	rows, err := s.db.conn.Query(
		`SELECT run_id, sheet, entity, status, valid, rows_read, valid_rows, errors
		 FROM run_sheets WHERE run_id = ? ORDER BY sheet`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []SheetLog
	for rows.Next() {
		var l SheetLog
		if err := rows.Scan(&l.RunID, &l.Sheet, &l.Entity, &l.Status, &l.Valid, &l.RowsRead, &l.ValidRows, &l.Errors); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListErrors returns up to limit field errors of a run. An empty sheet
// matches every sheet.
func (s *RunStore) ListErrors(runID, sheet string, limit int) ([]ErrorLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.conn.Query(
		`SELECT run_id, sheet, row_index, field, value, message, kind
		 FROM run_errors WHERE run_id = ? AND (? = '' OR sheet = ?)
		 ORDER BY rowid LIMIT ?`,
		runID, sheet, sheet, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []ErrorLog
	for rows.Next() {
		var l ErrorLog
		if err := rows.Scan(&l.RunID, &l.Sheet, &l.RowIndex, &l.Field, &l.Value, &l.Message, &l.Kind); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Prune deletes all but the newest keep runs.
func (s *RunStore) Prune(keep int) (int, error) {
	res, err := s.db.conn.Exec(
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
