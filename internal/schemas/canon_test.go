package schemas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"indicadores/internal/schemas"
)

func TestCompanySize(t *testing.T) {
	cases := map[string]string{
		"Microempresa":     "Micro",
		"PEQUEÑA":          "Pequeña",
		"pequena empresa":  "Pequeña",
		" Mediana ":        "Mediana",
		"Grande":           "Grande",
		"sin clasificar":   "Sin Clasificar",
	}
	for in, want := range cases {
		assert.Equal(t, want, schemas.CompanySize(in), "input %q", in)
	}
}

func TestTrend(t *testing.T) {
	cases := map[string]string{
		"Aumento leve":  "Aumento",
		"incremento":    "Aumento",
		"Disminución":   "Disminución",
		"disminucion":   "Disminución",
		"Reducción":     "Disminución",
		"constante":     "Estable",
		"ESTABLE":       "Estable",
		"variable":      "Variable",
	}
	for in, want := range cases {
		assert.Equal(t, want, schemas.Trend(in), "input %q", in)
	}
}

func TestImpact(t *testing.T) {
	cases := map[string]string{
		"Muy alto": "Alto",
		"moderado": "Medio",
		"Medio":    "Medio",
		"bajo":     "Bajo",
		"crítico":  "Crítico",
	}
	for in, want := range cases {
		assert.Equal(t, want, schemas.Impact(in), "input %q", in)
	}
}

func TestLifeStage(t *testing.T) {
	cases := map[string]string{
		"primera infancia":        schemas.StageEarlyChildhood,
		"Primera Infancia (0-5)":  schemas.StageEarlyChildhood,
		"Infancia 6-11":           schemas.StageChildhood,
		"Adolescencia":            schemas.StageAdolescence,
		"12-18 años":              schemas.StageAdolescence,
		"Juventud":                schemas.StageYouth,
		"19-28":                   schemas.StageYouth,
		"Adultez":                 schemas.StageAdulthood,
		"Persona Mayor":           schemas.StageElderly,
		"60 y más":                schemas.StageElderly,
		"TOTAL":                   schemas.StageTotal,
		"Otra etapa":              "Otra etapa",
	}
	for in, want := range cases {
		assert.Equal(t, want, schemas.LifeStage(in), "input %q", in)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Paz De Ariporo", schemas.Title("PAZ DE ARIPORO"))
	assert.Equal(t, "Yopal", schemas.Title(" yopal "))
}
