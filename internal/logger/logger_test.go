package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicadores/internal/logger"
)

func TestNewSplitsLevels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log, err := logger.New("debug", "json", &stdout, &stderr)
	require.NoError(t, err)

	log.Info().Str("sheet", "empresarial").Msg("sheet validated")
	log.Error().Msg("write failed")

	assert.Contains(t, stdout.String(), `"sheet":"empresarial"`)
	assert.NotContains(t, stdout.String(), "write failed")
	assert.Contains(t, stderr.String(), "write failed")
	assert.NotContains(t, stderr.String(), "sheet validated")
}

func TestNewRespectsLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log, err := logger.New("warn", "json", &stdout, &stderr)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "shown")
}

func TestNewRejectsUnknown(t *testing.T) {
	var buf bytes.Buffer
	_, err := logger.New("loud", "json", &buf, &buf)
	assert.Error(t, err)
	_, err = logger.New("info", "xml", &buf, &buf)
	assert.Error(t, err)
}
