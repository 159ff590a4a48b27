package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicadores/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.True(t, cfg.WritePartial)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indicadores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workbook: datos/indicadores.xlsx
output_dir: out
write_partial: false
sinks:
  - type: sql
    driver: sqlite
    dsn: out/indicadores.db
  - type: mongo
    uri: mongodb://localhost:27017
    database: indicadores
`), 0o644))
	t.Setenv("INDICADORES_OUTPUT_DIR", "from-env")
	t.Setenv("INDICADORES_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "datos/indicadores.xlsx", cfg.Workbook)
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "xlsx", cfg.SourceType, "unset keys keep their default")
	assert.False(t, cfg.WritePartial)
	require.Len(t, cfg.Sinks, 2)
	assert.Equal(t, "sqlite", cfg.Sinks[0].Driver)
	assert.Equal(t, "indicadores", cfg.Sinks[1].Database)
}

func TestLoadWritePartialEnv(t *testing.T) {
	t.Setenv("INDICADORES_WRITE_PARTIAL", "false")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.False(t, cfg.WritePartial)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.SourceType = "ods"
	cfg.LogLevel = "loud"
	cfg.Sinks = []config.SinkConfig{{Type: "sql", Driver: "oracle"}, {Type: "kafka"}}

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{"source_type", "log_level", "oracle", "dsn is required", "kafka"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadHistoryKeepEnv(t *testing.T) {
	t.Setenv("INDICADORES_HISTORY_KEEP", "30")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.HistoryKeep)

	cfg.HistoryKeep = -1
	assert.ErrorContains(t, cfg.Validate(), "history_keep")
}
