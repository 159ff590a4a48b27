package sources_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"indicadores/internal/etl"
	_ "indicadores/internal/etl/sources"
)

// writeWorkbook saves a workbook whose sheets are given as rows of cells.
func writeWorkbook(t *testing.T, sheets map[string][][]any, order ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "indicadores.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func readXLSX(t *testing.T, path string) *etl.Workbook {
	t.Helper()
	src, err := etl.GetSource("xlsx")
	require.NoError(t, err)
	wb, err := src.Read(context.Background(), etl.SourceConfig{"filePath": path})
	require.NoError(t, err)
	return wb
}

func TestXLSXReadTypes(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Sector_Economico": {
			{"Sector", " Año ", "Participación", "Notas"},
			{"Agricultura", 2023, 45.2, "N/A"},
			{"Comercio", 2022, "12,5", nil},
		},
	}, "Sector_Economico")

	wb := readXLSX(t, path)

	require.Len(t, wb.Tables, 1)
	tbl := wb.Tables[0]
	assert.Equal(t, "sector_economico", tbl.Name)
	assert.Equal(t, "Sector_Economico", tbl.Source)
	assert.Equal(t, []string{"sector", "ano", "participacion"}, tbl.Columns, "all-null column dropped")
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, "Agricultura", tbl.Records[0].Data["sector"])
	assert.Equal(t, 2023.0, tbl.Records[0].Data["ano"])
	assert.Equal(t, 45.2, tbl.Records[0].Data["participacion"])
	assert.Equal(t, 12.5, tbl.Records[1].Data["participacion"])
}

func TestXLSXDateCellsBecomeNull(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Generalidades": {
			{"Indicador", "Valor"},
			{"Poblacion", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)},
			{"Area", 4400},
		},
	}, "Generalidades")

	wb := readXLSX(t, path)

	require.Len(t, wb.Tables, 1)
	recs := wb.Tables[0].Records
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].Data["valor"])
	assert.Equal(t, 4400.0, recs[1].Data["valor"])
}

func TestXLSXSkipsEmptySheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Municipios": {{"Municipio", "Numero de empresas"}, {"Yopal", 120}},
		"Vacia":      {{"a", "b"}},
		"Blanca":     {},
	}, "Municipios", "Vacia", "Blanca")

	wb := readXLSX(t, path)

	require.Len(t, wb.Tables, 1)
	assert.Equal(t, "municipios", wb.Tables[0].Name)
	require.Len(t, wb.Skipped, 2)
	for _, s := range wb.Skipped {
		assert.True(t, errors.Is(s.Err, etl.ErrEmptySheet), s.Name)
	}
}

func TestXLSXSheetFilter(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Uno": {{"a"}, {1}},
		"Dos": {{"a"}, {2}},
	}, "Uno", "Dos")
	src, err := etl.GetSource("xlsx")
	require.NoError(t, err)

	wb, err := src.Read(context.Background(), etl.SourceConfig{"filePath": path, "sheets": "dos"})
	require.NoError(t, err)

	require.Len(t, wb.Tables, 1)
	assert.Equal(t, "dos", wb.Tables[0].Name)
}

func TestXLSXMissingFile(t *testing.T) {
	src, err := etl.GetSource("xlsx")
	require.NoError(t, err)

	_, err = src.Read(context.Background(), etl.SourceConfig{"filePath": filepath.Join(t.TempDir(), "nope.xlsx")})

	assert.True(t, errors.Is(err, etl.ErrSourceNotFound))
}

func TestXLSXDiscover(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Seguridad": {{"Tipo de delito", "Casos"}, {"Hurto", 10}, {"Homicidio", nil}},
	}, "Seguridad")
	src, err := etl.GetSource("xlsx")
	require.NoError(t, err)

	infos, err := src.Discover(context.Background(), etl.SourceConfig{"filePath": path})
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, "seguridad", infos[0].Name)
	assert.Equal(t, 2, infos[0].Rows)
	assert.Equal(t, 1, infos[0].NullCounts["casos"])
}
