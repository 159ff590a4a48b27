package schemas

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"indicadores/internal/etl"
)

// ── Canonicalisers ─────────────────────────────────────────
// String fields with a controlled vocabulary are rewritten to one
// spelling. Matching is by substring on the accent-folded value; anything
// unrecognised falls back to title case.

// Title title-cases s with Spanish rules, lowercasing the rest of each word.
func Title(s string) string {
	return cases.Title(language.Spanish).String(strings.TrimSpace(s))
}

// CompanySize maps a company-size label to Micro, Pequeña, Mediana or Grande.
func CompanySize(s string) string {
	v := etl.FoldAccents(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "micro"):
		return "Micro"
	case strings.Contains(v, "pequena"):
		return "Pequeña"
	case strings.Contains(v, "mediana"):
		return "Mediana"
	case strings.Contains(v, "grande"):
		return "Grande"
	}
	return Title(s)
}

// Trend maps a trend label to Aumento, Disminución or Estable.
func Trend(s string) string {
	v := etl.FoldAccents(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "aumento"), strings.Contains(v, "incremento"):
		return "Aumento"
	case strings.Contains(v, "disminucion"), strings.Contains(v, "reduccion"):
		return "Disminución"
	case strings.Contains(v, "estable"), strings.Contains(v, "constante"):
		return "Estable"
	}
	return Title(s)
}

// Impact maps an impact label to Alto, Medio or Bajo.
func Impact(s string) string {
	v := etl.FoldAccents(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "alto"):
		return "Alto"
	case strings.Contains(v, "medio"), strings.Contains(v, "moderado"):
		return "Medio"
	case strings.Contains(v, "bajo"):
		return "Bajo"
	}
	return Title(s)
}

// Life stages, in the order they are matched.
const (
	StageEarlyChildhood = "Primera infancia 0-5 años"
	StageChildhood      = "Infancia 6-11 años"
	StageAdolescence    = "Adolescencia 12-17 años"
	StageYouth          = "Juventud 18-28 años"
	StageAdulthood      = "Adultez 29-59 años"
	StageElderly        = "Persona mayor 60 años y más"
	StageTotal          = "Total"
)

// LifeStage maps a life-stage label to one of the canonical stage names.
// Unrecognised labels are kept as given.
func LifeStage(s string) string {
	raw := strings.TrimSpace(s)
	v := etl.FoldAccents(raw)
	switch {
	case strings.Contains(v, "primera infancia"), strings.Contains(raw, "0-5"):
		return StageEarlyChildhood
	case strings.Contains(v, "infancia") && strings.Contains(raw, "6-11"):
		return StageChildhood
	case strings.Contains(v, "adolescencia"), strings.Contains(raw, "12-17"), strings.Contains(raw, "12-18"):
		return StageAdolescence
	case strings.Contains(v, "juventud"), strings.Contains(raw, "18-28"), strings.Contains(raw, "19-28"):
		return StageYouth
	case strings.Contains(v, "adultez"), strings.Contains(raw, "29-59"):
		return StageAdulthood
	case strings.Contains(v, "mayor"), strings.Contains(raw, "60"):
		return StageElderly
	case strings.Contains(v, "total"):
		return StageTotal
	}
	return raw
}
