package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"indicadores/internal/dataset"
	"indicadores/internal/etl"
	"indicadores/internal/schemas"
	"indicadores/internal/storage"
)

// ── Styles ─────────────────────────────────────────────────
// Colours only show on a terminal; piped output is plain text.

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	nameStyle  = lipgloss.NewStyle().Width(32)
)

func statusBadge(s etl.SheetStatus) string {
	switch s {
	case etl.StatusValid:
		return okStyle.Render("VÁLIDA")
	case etl.StatusDegraded:
		return warnStyle.Render("PARCIAL")
	case etl.StatusEmpty:
		return failStyle.Render("SIN FILAS VÁLIDAS")
	default:
		return failStyle.Render("SIN ESQUEMA")
	}
}

// ── Run report ─────────────────────────────────────────────

func renderRun(res *etl.RunResult) string {
	var b strings.Builder
	b.WriteString(res.Summary())
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("=== ESTADO POR HOJA ==="))
	b.WriteString("\n")
	for _, r := range res.Results {
		fmt.Fprintf(&b, "%s %s %s\n",
			nameStyle.Render(r.Sheet),
			statusBadge(r.Status()),
			dimStyle.Render(fmt.Sprintf("(%d/%d filas)", len(r.Records), r.RowsRead)),
		)
	}

	line := fmt.Sprintf("Hojas válidas: %d/%d", res.ValidSheets(), len(res.Results))
	switch {
	case res.Status == etl.RunError:
		line = failStyle.Render("Ejecución fallida: " + res.Error)
	case res.ValidSheets() == len(res.Results):
		line = okStyle.Render(line)
	default:
		line = warnStyle.Render(line)
	}
	fmt.Fprintf(&b, "\n%s\n", line)
	if res.DryRun {
		b.WriteString(dimStyle.Render("(validación sin escritura)") + "\n")
	}
	return b.String()
}

// ── Verification ───────────────────────────────────────────

func renderChecks(checks []dataset.Check) string {
	var b strings.Builder
	b.WriteString(dataset.Report(checks))
	missing := 0
	for _, c := range checks {
		if !c.OK() {
			missing++
		}
	}
	if missing == 0 {
		b.WriteString(okStyle.Render("Todos los archivos están completos") + "\n")
	} else {
		b.WriteString(failStyle.Render(fmt.Sprintf("%d archivos faltan o están vacíos", missing)) + "\n")
	}
	return b.String()
}

// ── Schemas ────────────────────────────────────────────────

func renderSchemas(reg *schemas.Registry) string {
	var b strings.Builder
	for _, s := range reg.Schemas() {
		fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(s.Entity), dimStyle.Render("("+s.Sheet+")"))
		if aliases := reg.Aliases(s.Sheet); len(aliases) > 0 {
			fmt.Fprintf(&b, "  hojas equivalentes: %s\n", strings.Join(aliases, ", "))
		}
		for _, f := range s.Fields {
			fmt.Fprintf(&b, "  %s %s%s\n", nameStyle.Render(f.Name), f.Type, fieldConstraints(f))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func fieldConstraints(f etl.Field) string {
	var parts []string
	if f.Required {
		parts = append(parts, "requerido")
	} else {
		parts = append(parts, "opcional")
	}
	switch {
	case f.Min != nil && f.Max != nil:
		parts = append(parts, fmt.Sprintf("[%s, %s]", etl.FormatValue(*f.Min), etl.FormatValue(*f.Max)))
	case f.Min != nil:
		parts = append(parts, "≥ "+etl.FormatValue(*f.Min))
	case f.Max != nil:
		parts = append(parts, "≤ "+etl.FormatValue(*f.Max))
	}
	if f.Decimals > 0 {
		parts = append(parts, fmt.Sprintf("%d decimales", f.Decimals))
	}
	if f.Lenient {
		parts = append(parts, "nulo si no es numérico")
	}
	return " " + dimStyle.Render(strings.Join(parts, ", "))
}

// ── History ────────────────────────────────────────────────

func renderHistory(runs []storage.RunLog) string {
	if len(runs) == 0 {
		return "Sin ejecuciones registradas\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("=== HISTORIAL DE EJECUCIONES ===") + "\n")
	for _, r := range runs {
		status := okStyle.Render(r.Status)
		if r.Status != etl.RunSuccess {
			status = failStyle.Render(r.Status)
		}
		fmt.Fprintf(&b, "%s  %s  %s  hojas %d/%d  filas %d→%d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), status,
			r.ValidSheets, r.Sheets, r.RowsRead, r.RowsWritten, r.Duration.Round(time.Millisecond))
		if r.Error != "" {
			fmt.Fprintf(&b, "  %s\n", failStyle.Render(r.Error))
		}
	}
	return b.String()
}

func renderRunDetail(runID string, sheets []storage.SheetLog, errs []storage.ErrorLog) string {
	if len(sheets) == 0 {
		return fmt.Sprintf("No hay hojas registradas para la ejecución %s\n", runID)
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("=== EJECUCIÓN "+runID+" ===") + "\n")
	for _, s := range sheets {
		fmt.Fprintf(&b, "%s %s %s\n",
			nameStyle.Render(s.Sheet),
			statusBadge(etl.SheetStatus(s.Status)),
			dimStyle.Render(fmt.Sprintf("(%d/%d filas, %d errores)", s.ValidRows, s.RowsRead, s.Errors)),
		)
	}
	if len(errs) > 0 {
		b.WriteString("\n" + titleStyle.Render("Errores") + "\n")
		for _, e := range errs {
			fmt.Fprintf(&b, "  %s fila %d: %s = '%s' - %s\n", e.Sheet, e.RowIndex, e.Field, e.Value, e.Message)
		}
	}
	return b.String()
}
