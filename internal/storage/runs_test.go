package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicadores/internal/etl"
	"indicadores/internal/storage"
)

func openStore(t *testing.T) *storage.RunStore {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "history", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewRunStore(db)
}

func sampleRun(id string, started time.Time) *etl.RunResult {
	schema := &etl.Schema{Entity: "Empresarial", Sheet: "empresarial"}
	return &etl.RunResult{
		ID:         id,
		Source:     "xlsx",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Duration:   1500 * time.Millisecond,
		Status:     etl.RunSuccess,
		Workbook:   &etl.Workbook{Path: "indicadores.xlsx"},
		Results: []*etl.ValidationResult{
			{
				Sheet: "empresarial", Schema: schema, Valid: false, RowsRead: 3, FailedRows: 1,
				Records: []etl.Record{{Index: 0}, {Index: 2}},
				Errors: []etl.ValidationError{
					{RowIndex: 1, Field: "numero_de_empresas", Value: -3.0, Message: "debe ser mayor o igual a 0", Kind: etl.KindField},
				},
			},
			{
				Sheet:  "otra",
				Errors: []etl.ValidationError{{Field: "sheet_name", Value: "otra", Message: "sin esquema", Kind: etl.KindSchemaMissing}},
			},
		},
		Outputs: []etl.SheetOutput{{Sheet: "empresarial", Destination: "csv", Rows: 2}},
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	s := openStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateRun(sampleRun("run-1", started)))

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, "indicadores.xlsx", r.Path)
	assert.Equal(t, etl.RunSuccess, r.Status)
	assert.Equal(t, 1500*time.Millisecond, r.Duration)
	assert.Equal(t, 2, r.Sheets)
	assert.Equal(t, 0, r.ValidSheets)
	assert.Equal(t, 3, r.RowsRead)
	assert.Equal(t, 2, r.RowsWritten)
	assert.True(t, r.StartedAt.Equal(started))

	sheets, err := s.ListSheets("run-1")
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "empresarial", sheets[0].Sheet)
	assert.Equal(t, "Empresarial", sheets[0].Entity)
	assert.Equal(t, string(etl.StatusDegraded), sheets[0].Status)
	assert.Equal(t, 2, sheets[0].ValidRows)
	assert.Equal(t, string(etl.StatusSchemaMissing), sheets[1].Status)

	errs, err := s.ListErrors("run-1", "empresarial", 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].RowIndex)
	assert.Equal(t, "-3", errs[0].Value)

	all, err := s.ListErrors("run-1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRunStoreOrderAndPrune(t *testing.T) {
	s := openStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateRun(sampleRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	n, err := s.Prune(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sheets, err := s.ListSheets("a")
	require.NoError(t, err)
	assert.Empty(t, sheets, "sheet rows cascade with their run")
}
