package schemas

import "indicadores/internal/etl"

// ── Field builders ─────────────────────────────────────────

func text(name string) etl.Field {
	return etl.Field{Name: name, Type: etl.TypeString, Required: true}
}

func canonText(name string, canon func(string) string) etl.Field {
	f := text(name)
	f.Canon = canon
	return f
}

func note(name string) etl.Field {
	return etl.Field{Name: name, Type: etl.TypeString}
}

func year(name string) etl.Field {
	return etl.Field{Name: name, Type: etl.TypeInteger, Required: true, Min: etl.Limit(2000), Max: etl.Limit(2030)}
}

func count(name string) etl.Field {
	return etl.Field{Name: name, Type: etl.TypeInteger, Required: true, Min: etl.Limit(0)}
}

func percent(name string) etl.Field {
	return etl.Field{Name: name, Type: etl.TypeFloat, Required: true, Min: etl.Limit(0), Max: etl.Limit(100), Decimals: 2}
}

// optNumber is an optional float that is nulled when it cannot be parsed.
func optNumber(name string, min, max *float64) etl.Field {
	return etl.Field{Name: name, Type: etl.TypeFloat, Min: min, Max: max, Lenient: true}
}

// ── Catalogue ──────────────────────────────────────────────

func catalogue() []*etl.Schema {
	return []*etl.Schema{
		{
			Entity: "SectorEconomico",
			Sheet:  "sector_economico",
			Fields: []etl.Field{
				text("sector_economico"),
				percent("participacion_porcentual"),
				optNumber("valor_aproximado_cop_billones", etl.Limit(0), nil),
			},
			Aliases: map[string]string{
				"sector_econ_mico":         "sector_economico",
				"participaci_n_porcentual": "participacion_porcentual",
			},
		},
		{
			Entity: "Empresarial",
			Sheet:  "empresarial",
			Fields: []etl.Field{
				canonText("tamano_de_empresa", CompanySize),
				count("numero_de_empresas"),
				percent("porcentaje_del_total"),
			},
			Aliases: map[string]string{
				"tama_o_de_empresa":  "tamano_de_empresa",
				"n_mero_de_empresas": "numero_de_empresas",
				"nmero_de_empresas":  "numero_de_empresas",
			},
		},
		{
			Entity: "Graduados",
			Sheet:  "graduados",
			Fields: []etl.Field{
				text("area_de_conocimiento"),
				count("numero_de_graduados"),
				percent("porcentaje_del_total"),
			},
			Aliases: map[string]string{
				"rea_de_conocimiento": "area_de_conocimiento",
				"n_mero_de_graduados": "numero_de_graduados",
			},
		},
		{
			Entity: "Generalidades",
			Sheet:  "generalidades",
			Fields: []etl.Field{
				text("pilar_competitividad"),
				text("indicador"),
				year("ano"),
				{Name: "valor", Type: etl.TypeFloat, Required: true, Min: etl.Limit(0), Decimals: 2},
				text("unidad"),
				{Name: "ranking_nacional", Type: etl.TypeInteger, Min: etl.Limit(1), Max: etl.Limit(50)},
				text("fuente"),
			},
		},
		{
			Entity: "Desercion",
			Sheet:  "desercion",
			Fields: []etl.Field{
				canonText("municipio", Title),
				year("ano"),
				{Name: "tasa_desercion", Type: etl.TypeFloat, Required: true, Min: etl.Limit(0), Max: etl.Limit(1), Decimals: 4},
				text("sector"),
				note("observaciones"),
			},
		},
		{
			Entity: "Seguridad",
			Sheet:  "seguridad",
			Fields: []etl.Field{
				text("tipo_delito"),
				count("casos_2023"),
				count("casos_2024"),
				{Name: "variacion_porcentual", Type: etl.TypeFloat, Required: true, Decimals: 2},
				canonText("tendencia", Trend),
				canonText("impacto", Impact),
				note("observaciones"),
			},
			Aliases: map[string]string{
				"tipo_de_delito": "tipo_delito",
			},
		},
		{
			Entity: "Morbilidad",
			Sheet:  "morbilidad",
			Fields: []etl.Field{
				{Name: "item", Type: etl.TypeInteger, Required: true, Min: etl.Limit(1)},
				text("sector"),
				text("programa"),
				text("tema"),
				text("subtema"),
				text("dimension"),
				text("variables"),
				text("indicador"),
				text("tipo_de_medida"),
				text("nivel_de_desagregacion"),
				year("ano"),
				count("valor"),
				text("estado"),
				count("ano_de_creacion"),
				count("ano_de_baja"),
				text("fuente_indicador"),
				text("periodo_tiempo"),
				note("observaciones"),
			},
		},
		{
			Entity: "CicloVital",
			Sheet:  "ciclo_vital",
			Fields: []etl.Field{
				canonText("ciclo_vital", LifeStage),
				optNumber("poblacion", etl.Limit(0), nil),
				optNumber("peso_relativo", etl.Limit(0), etl.Limit(1)),
			},
		},
		{
			Entity: "Municipios",
			Sheet:  "municipios",
			Fields: []etl.Field{
				canonText("municipio", Title),
				optNumber("numero_de_empresas", etl.Limit(0), nil),
				optNumber("porcentaje_del_total", etl.Limit(0), etl.Limit(100)),
			},
			Aliases: map[string]string{
				"n_mero_de_empresas": "numero_de_empresas",
				"nmero_de_empresas":  "numero_de_empresas",
			},
		},
		{
			Entity: "CalidadAgua",
			Sheet:  "calidad_agua",
			Fields: []etl.Field{
				year("ano"),
				optNumber("indice_riesgo_calidad_agua", etl.Limit(0), nil),
				{Name: "municipios_sin_riesgo", Type: etl.TypeInteger, Min: etl.Limit(0), Lenient: true},
				{Name: "municipios_riesgo_medio", Type: etl.TypeInteger, Min: etl.Limit(0), Lenient: true},
				{Name: "municipios_riesgo_alto", Type: etl.TypeInteger, Min: etl.Limit(0), Lenient: true},
			},
		},
		{
			Entity: "EstructuraDemografica",
			Sheet:  "estructura_demografica",
			Fields: []etl.Field{
				text("indicador"),
				optNumber("valor", nil, nil),
			},
		},
	}
}

// sheetAliases maps legacy worksheet names to the sheet whose schema
// validates them.
var sheetAliases = map[string]string{
	"graduados_profesion":              "graduados",
	"tasa_desercion_sector_oficial":    "desercion",
	"numero_de_empresas_por_municipio": "municipios",
	"numero_de_empresas_por_municipi":  "municipios",
	"morbilidad1":                      "morbilidad",
	"calidad_del_agua":                 "calidad_agua",
}
