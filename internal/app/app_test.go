package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicadores/internal/app"
	"indicadores/internal/config"
	"indicadores/internal/etl"
)

func TestJobFromConfig(t *testing.T) {
	cfg := config.Default()
	job := app.Job(cfg)
	assert.Equal(t, "xlsx", job.SourceType)
	assert.Equal(t, cfg.Workbook, job.SourceCfg.String("filePath"))
	assert.True(t, job.WritePartial)

	cfg.SourceType = "csv_dir"
	cfg.Workbook = "extracts"
	job = app.Job(cfg)
	assert.Equal(t, "extracts", job.SourceCfg.String("dir"))
}

func TestNewRunsWithSQLiteSinkAndHistory(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "graduados_profesion.csv"),
		[]byte("Área de conocimiento,Número de graduados,Porcentaje del total\nIngeniería,120,40\nSalud,180,60\n"), 0o644))

	cfg := config.Default()
	cfg.SourceType = "csv_dir"
	cfg.Workbook = in
	cfg.OutputDir = filepath.Join(root, "clean")
	cfg.HistoryDB = filepath.Join(root, "history.db")
	cfg.Sinks = []config.SinkConfig{{Type: "sql", Driver: "sqlite", DSN: filepath.Join(root, "out.db"), TablePrefix: "ind_"}}
	require.NoError(t, cfg.Validate())

	a, err := app.New(cfg, zerolog.Nop())
	require.NoError(t, err)

	res, err := a.Pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.True(t, res.Results[0].Valid)
	assert.Equal(t, "graduados_profesion", res.Results[0].Sheet)
	require.Len(t, res.Outputs, 2)
	assert.Equal(t, "csv", res.Outputs[0].Destination)
	assert.Equal(t, "sql:sqlite", res.Outputs[1].Destination)

	// The legacy sheet name is an accepted file name for graduados.
	var graduados *etl.Table
	for _, c := range a.Dataset.Verify(a.Expectations()) {
		if c.Name == "graduados" {
			assert.True(t, c.OK())
			assert.Equal(t, "graduados_profesion", c.File)
			graduados, err = a.Dataset.Get(c.File)
			require.NoError(t, err)
		}
	}
	require.NotNil(t, graduados)
	assert.Len(t, graduados.Records, 2)

	runs, err := a.Pipeline.History(5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, a.Shutdown(context.Background()))
}

func TestNewRejectsUnknownSink(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks = []config.SinkConfig{{Type: "kafka"}}
	_, err := app.New(cfg, zerolog.Nop())
	assert.Error(t, err)
}
