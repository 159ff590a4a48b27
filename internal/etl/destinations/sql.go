// Package destinations holds the database targets a run can write
// validated sheets to, alongside the CSV files.
package destinations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"indicadores/internal/etl"
)

// ── SQL Destination ────────────────────────────────────────
// One table per sheet, dropped and recreated on every write so the table
// always mirrors the latest validated sheet.

// SQLWriter writes sheets into a SQLite, Postgres or MySQL database.
// Postgres is reachable through lib/pq ("postgres") or pgx ("pgx").
type SQLWriter struct {
	driver string
	prefix string
	db     *sql.DB
}

// OpenSQL opens the database. driver is "sqlite", "postgres", "pgx" or
// "mysql"; prefix is prepended to every table name.
func OpenSQL(driver, dsn, prefix string) (*SQLWriter, error) {
	switch driver {
	case "sqlite", "postgres", "pgx", "mysql":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)
	}
	return &SQLWriter{driver: driver, prefix: prefix, db: db}, nil
}

func (w *SQLWriter) Name() string { return "sql:" + w.driver }

// DB exposes the underlying handle.
func (w *SQLWriter) DB() *sql.DB { return w.db }

func (w *SQLWriter) Close() error { return w.db.Close() }

// Prepare checks the database is reachable.
func (w *SQLWriter) Prepare(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := w.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping %s: %v", etl.ErrWrite, w.driver, err)
	}
	return nil
}

// Table returns the table name a sheet is written to.
func (w *SQLWriter) Table(sheet string) string { return w.prefix + sheet }

func (w *SQLWriter) Write(ctx context.Context, sheet string, schema *etl.Schema, records []etl.Record) (int, error) {
	n, err := w.write(ctx, w.Table(sheet), schema, records)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", etl.ErrWrite, sheet, err)
	}
	return n, nil
}

// write replaces table with records in one transaction. MySQL commits
// DROP and CREATE implicitly, so there only the inserts are atomic.
func (w *SQLWriter) write(ctx context.Context, table string, schema *etl.Schema, records []etl.Record) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+w.quote(table)); err != nil {
		return 0, fmt.Errorf("drop: %w", err)
	}
	if _, err := tx.ExecContext(ctx, w.createTable(table, schema)); err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, w.insert(table, schema))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(schema.Fields))
	for _, rec := range records {
		for i, f := range schema.Fields {
			args[i] = rec.Data[f.Name]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", rec.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

func (w *SQLWriter) createTable(table string, schema *etl.Schema) string {
	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		col := w.quote(f.Name) + " " + w.columnType(f.Type)
		if f.Required {
			col += " NOT NULL"
		}
		cols[i] = col
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", w.quote(table), strings.Join(cols, ", "))
}

func (w *SQLWriter) insert(table string, schema *etl.Schema) string {
	cols := make([]string, len(schema.Fields))
	marks := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = w.quote(f.Name)
		if w.dialect() == "postgres" {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.quote(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func (w *SQLWriter) columnType(t etl.FieldType) string {
	switch t {
	case etl.TypeInteger:
		return "BIGINT"
	case etl.TypeFloat:
		switch w.dialect() {
		case "postgres":
			return "DOUBLE PRECISION"
		case "mysql":
			return "DOUBLE"
		}
		return "REAL"
	}
	return "TEXT"
}

// dialect folds the driver names that speak the same SQL.
func (w *SQLWriter) dialect() string {
	if w.driver == "pgx" {
		return "postgres"
	}
	return w.driver
}

func (w *SQLWriter) quote(ident string) string {
	if w.driver == "mysql" {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
