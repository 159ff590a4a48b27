package etl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicadores/internal/etl"
)

type mapLookup map[string]*etl.Schema

func (m mapLookup) Lookup(sheet string) (*etl.Schema, bool) {
	s, ok := m[sheet]
	return s, ok
}

func indicatorSchema() *etl.Schema {
	return &etl.Schema{
		Entity: "Indicador",
		Sheet:  "indicador",
		Fields: []etl.Field{
			{Name: "municipio", Type: etl.TypeString, Required: true, Canon: strings.ToUpper},
			{Name: "ano", Type: etl.TypeInteger, Required: true, Min: etl.Limit(2000), Max: etl.Limit(2030)},
			{Name: "porcentaje", Type: etl.TypeFloat, Required: true, Min: etl.Limit(0), Max: etl.Limit(100), Decimals: 2},
			{Name: "nota", Type: etl.TypeString},
			{Name: "poblacion", Type: etl.TypeInteger, Min: etl.Limit(0), Lenient: true},
		},
		Aliases: map[string]string{"a_o": "ano"},
	}
}

func newValidator() *etl.Validator {
	return etl.NewValidator(mapLookup{"indicador": indicatorSchema()}, zerolog.Nop())
}

func table(rows ...map[string]any) *etl.Table {
	t := &etl.Table{Name: "indicador", Source: "Indicador"}
	seen := map[string]bool{}
	for i, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
		t.Records = append(t.Records, etl.Record{Index: i, Data: r})
	}
	return t
}

func TestValidateSheetAllValid(t *testing.T) {
	res := newValidator().ValidateSheet(table(
		map[string]any{"municipio": "yopal", "ano": 2023.0, "porcentaje": 45.236},
		map[string]any{"municipio": "Aguazul", "ano": 2022.0, "porcentaje": 0.0, "nota": "ok"},
	))

	assert.True(t, res.Valid)
	assert.Equal(t, etl.StatusValid, res.Status())
	require.Len(t, res.Records, 2)
	first := res.Records[0].Data
	assert.Equal(t, "YOPAL", first["municipio"])
	assert.Equal(t, int64(2023), first["ano"])
	assert.Equal(t, 45.24, first["porcentaje"])
	assert.Nil(t, first["nota"])
	assert.Contains(t, first, "poblacion", "absent optional fields are present as null")
}

func TestValidateSheetBounds(t *testing.T) {
	res := newValidator().ValidateSheet(table(
		map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 100.0},
		map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 105.0},
		map[string]any{"municipio": "Yopal", "ano": 1999.0, "porcentaje": 1.0},
	))

	assert.False(t, res.Valid)
	assert.Equal(t, etl.StatusDegraded, res.Status())
	require.Len(t, res.Records, 1)
	assert.Equal(t, 100.0, res.Records[0].Data["porcentaje"], "bounds are inclusive")

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Errors[0].RowIndex)
	assert.Equal(t, "porcentaje", res.Errors[0].Field)
	assert.Equal(t, 105.0, res.Errors[0].Value)
	assert.Equal(t, 2, res.Errors[1].RowIndex)
	assert.Equal(t, "ano", res.Errors[1].Field)
}

func TestValidateSheetRowPartition(t *testing.T) {
	res := newValidator().ValidateSheet(table(
		map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 5.0},
		map[string]any{"municipio": nil, "ano": "dos mil", "porcentaje": -1.0},
		map[string]any{"municipio": "Yopal", "ano": 2023.5, "porcentaje": 5.0},
	))

	assert.Equal(t, 3, res.RowsRead)
	assert.Equal(t, 2, res.FailedRows)
	assert.Equal(t, res.RowsRead, len(res.Records)+res.FailedRows)
	assert.Len(t, res.Errors, 4, "one error per failing field")
	for _, e := range res.Errors {
		assert.True(t, errors.Is(e, etl.ErrFieldValidation))
	}
}

func TestValidateSheetUnknownField(t *testing.T) {
	res := newValidator().ValidateSheet(table(
		map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 5.0, "extra": nil},
	))

	assert.False(t, res.Valid)
	assert.Equal(t, etl.StatusEmpty, res.Status())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "extra", res.Errors[0].Field)
	assert.Equal(t, etl.KindUnknownField, res.Errors[0].Kind)
}

func TestValidateSheetAliases(t *testing.T) {
	res := newValidator().ValidateSheet(table(
		map[string]any{"municipio": "Yopal", "a_o": 2023.0, "porcentaje": 5.0},
	))

	require.True(t, res.Valid, res.ErrorSummary())
	assert.Equal(t, int64(2023), res.Records[0].Data["ano"])
}

func TestValidateSheetCompetingAliases(t *testing.T) {
	schema := indicatorSchema()
	schema.Aliases = map[string]string{"a_o": "ano", "anio": "ano"}
	v := etl.NewValidator(mapLookup{"indicador": schema}, zerolog.Nop())

	for i := 0; i < 10; i++ {
		res := v.ValidateSheet(table(
			map[string]any{"municipio": "Yopal", "a_o": 2023.0, "anio": 2024.0, "porcentaje": 5.0},
		))

		assert.False(t, res.Valid)
		assert.Empty(t, res.Records)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "anio", res.Errors[0].Field)
		assert.Equal(t, etl.KindUnknownField, res.Errors[0].Kind)
		assert.Equal(t, 2024.0, res.Errors[0].Value)
	}
}

func TestRenameTransformClaimsTargetOnce(t *testing.T) {
	rt := &etl.RenameTransform{Mapping: map[string]string{"nmero": "numero", "n_mero": "numero"}}

	assert.Equal(t, []string{"nmero", "numero"}, rt.Columns([]string{"nmero", "n_mero"}))
	assert.Equal(t, []string{"numero", "nmero"}, rt.Columns([]string{"numero", "nmero"}))

	rec, keep := rt.Transform(etl.Record{Data: map[string]any{"nmero": 20.0, "n_mero": 10.0}})
	require.True(t, keep)
	assert.Equal(t, map[string]any{"numero": 10.0, "nmero": 20.0}, rec.Data)
}

func TestValidateSheetLenientOptional(t *testing.T) {
	res := newValidator().ValidateSheet(table(
		map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 5.0, "poblacion": "sin dato"},
		map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 5.0, "poblacion": -4.0},
	))

	require.Len(t, res.Records, 1)
	assert.Nil(t, res.Records[0].Data["poblacion"])
	require.Len(t, res.Errors, 1, "bounds still apply to lenient fields")
	assert.Equal(t, "poblacion", res.Errors[0].Field)
}

func TestValidateSheetSchemaMissing(t *testing.T) {
	tbl := table(map[string]any{"x": 1.0})
	tbl.Name = "desconocida"

	res := newValidator().ValidateSheet(tbl)

	assert.False(t, res.Valid)
	assert.Equal(t, etl.StatusSchemaMissing, res.Status())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "sheet_name", res.Errors[0].Field)
	assert.Equal(t, 0, res.Errors[0].RowIndex)
	assert.True(t, errors.Is(res.Errors[0], etl.ErrSchemaMissing))
	assert.Empty(t, res.Records)
}

func TestValidateSheetNoRows(t *testing.T) {
	res := newValidator().ValidateSheet(&etl.Table{Name: "indicador"})
	assert.False(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateRecordStringFromNumber(t *testing.T) {
	out, errs := etl.ValidateRecord(indicatorSchema(), etl.Record{Data: map[string]any{
		"municipio": 85001.0, "ano": "2023", "porcentaje": "12,5",
	}})

	require.Empty(t, errs)
	assert.Equal(t, "85001", out.Data["municipio"])
	assert.Equal(t, int64(2023), out.Data["ano"])
	assert.Equal(t, 12.5, out.Data["porcentaje"])
}

func TestErrorSummary(t *testing.T) {
	var rows []map[string]any
	for i := 0; i < 7; i++ {
		rows = append(rows, map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 200.0})
	}
	res := newValidator().ValidateSheet(table(rows...))

	out := res.ErrorSummary()

	assert.True(t, strings.HasPrefix(out, "Total de errores: 7"))
	assert.Contains(t, out, "  Fila 0: porcentaje = '200' - debe estar entre 0 y 100")
	assert.Contains(t, out, "  Fila 4:")
	assert.NotContains(t, out, "Fila 5:")
	assert.Contains(t, out, "  ... y 2 errores más")
}

func TestSummary(t *testing.T) {
	v := newValidator()
	ok := v.ValidateSheet(table(map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 1.0}))
	bad := v.ValidateSheet(table(map[string]any{"municipio": "Yopal", "ano": 2023.0, "porcentaje": 101.0}))

	out := etl.Summary([]*etl.ValidationResult{ok, bad})

	assert.Contains(t, out, "Total de hojas: 2")
	assert.Contains(t, out, "Hojas válidas: 1")
	assert.Contains(t, out, "Hojas con errores: 1")
	assert.Contains(t, out, "CON ERRORES")
	assert.Contains(t, out, "Total de errores: 1")
}
