package etl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicadores/internal/etl"
)

func TestCSVWriterWritesSchemaOrder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clean")
	w := etl.NewCSVWriter(dir)
	require.NoError(t, w.Prepare(context.Background()))

	records := []etl.Record{
		{Index: 0, Data: map[string]any{"porcentaje": 45.2, "municipio": "Yopal", "ano": int64(2023), "nota": nil, "poblacion": nil}},
		{Index: 3, Data: map[string]any{"porcentaje": 1.0, "municipio": "Paz de Ariporo, Casanare", "ano": int64(2022), "nota": "x", "poblacion": int64(10)}},
	}
	n, err := w.Write(context.Background(), "indicador", indicatorSchema(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dir, "indicador.csv"))
	require.NoError(t, err)
	want := "municipio,ano,porcentaje,nota,poblacion\n" +
		"Yopal,2023,45.2,,\n" +
		"\"Paz de Ariporo, Casanare\",2022,1,x,10\n"
	assert.Equal(t, want, string(data))
}

func TestCSVWriterIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := etl.NewCSVWriter(dir)
	records := []etl.Record{{Data: map[string]any{"municipio": "Yopal", "ano": int64(2023), "porcentaje": 3.5}}}

	_, err := w.Write(context.Background(), "indicador", indicatorSchema(), records)
	require.NoError(t, err)
	first, err := os.ReadFile(w.Path("indicador"))
	require.NoError(t, err)

	_, err = w.Write(context.Background(), "indicador", indicatorSchema(), records)
	require.NoError(t, err)
	second, err := os.ReadFile(w.Path("indicador"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCSVWriterPrepareFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := etl.NewCSVWriter(filepath.Join(file, "clean")).Prepare(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, etl.ErrWrite))
}
