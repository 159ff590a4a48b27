package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"indicadores/internal/etl"
)

// ── XLSX Source ────────────────────────────────────────────
// Reads every worksheet of an Excel workbook. The first row is the
// header. Cells keep their native type: numbers as float64, booleans as
// bool, text as string and date-formatted numbers as time.Time, which
// the normalizer then discards.

type xlsxSource struct{}

func init() { etl.RegisterSource(&xlsxSource{}) }

func (s *xlsxSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "xlsx",
		Label: "Excel Workbook",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Path to the .xlsx workbook"},
			{Key: "sheets", Label: "Sheets", Type: "string", Help: "Comma-separated worksheet names to read (default: all)"},
		},
	}
}

func (s *xlsxSource) Discover(ctx context.Context, cfg etl.SourceConfig) ([]etl.SheetInfo, error) {
	wb, err := s.Read(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return wb.Info(), nil
}

func (s *xlsxSource) Read(ctx context.Context, cfg etl.SourceConfig) (wb *etl.Workbook, err error) {
	path := cfg.String("filePath")
	if path == "" {
		return nil, fmt.Errorf("filePath is required")
	}
	if _, serr := os.Stat(path); errors.Is(serr, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", etl.ErrSourceNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	wanted := sheetFilter(cfg.String("sheets"))
	wb = &etl.Workbook{Path: path}
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if wanted != nil && !wanted[etl.CanonicalColumn(name)] {
			continue
		}
		t, rerr := newSheetReader(f, name).read()
		if rerr != nil {
			wb.Skipped = append(wb.Skipped, etl.SkippedSheet{Name: name, Err: rerr})
			continue
		}
		if len(t.Records) == 0 {
			wb.Skipped = append(wb.Skipped, etl.SkippedSheet{Name: name, Err: etl.ErrEmptySheet})
			continue
		}
		wb.Tables = append(wb.Tables, t)
	}
	return wb, nil
}

func sheetFilter(list string) map[string]bool {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	out := map[string]bool{}
	for _, s := range strings.Split(list, ",") {
		if c := etl.CanonicalColumn(s); c != "" {
			out[c] = true
		}
	}
	return out
}

// ── Cell typing ────────────────────────────────────────────

type sheetReader struct {
	f          *excelize.File
	sheet      string
	dateStyles map[int]bool
}

func newSheetReader(f *excelize.File, sheet string) *sheetReader {
	return &sheetReader{f: f, sheet: sheet, dateStyles: map[int]bool{}}
}

func (r *sheetReader) read() (*etl.Table, error) {
	rows, err := r.f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", etl.ErrSheetRead, r.sheet, err)
	}
	if len(rows) == 0 {
		return etl.NewTable(r.sheet, nil, nil), nil
	}

	header := rows[0]
	data := make([][]any, len(rows)-1)
	for i, row := range rows[1:] {
		cells := make([]any, len(row))
		for j, raw := range row {
			cells[j] = r.cell(j+1, i+2, raw)
		}
		data[i] = cells
	}
	return etl.NewTable(r.sheet, header, data), nil
}

// cell types one raw cell value. col and row are 1-based.
func (r *sheetReader) cell(col, row int, raw string) any {
	if raw == "" {
		return nil
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := r.f.GetCellType(r.sheet, ref)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
		return time.Time{}
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return raw
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	if r.isDate(ref, raw) {
		if t, err := excelize.ExcelDateToTime(num, false); err == nil {
			return t
		}
		return time.Time{}
	}
	return num
}

var dateTextRe = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)

// isDate reports whether a numeric cell carries a date number format.
func (r *sheetReader) isDate(ref, raw string) bool {
	idx, err := r.f.GetCellStyle(r.sheet, ref)
	if err == nil && idx > 0 {
		if d, ok := r.dateStyles[idx]; ok {
			return d
		}
		d := false
		if style, err := r.f.GetStyle(idx); err == nil && style != nil {
			if style.CustomNumFmt != nil {
				d = isDateFormat(*style.CustomNumFmt)
			} else {
				d = builtinDateFormat(style.NumFmt)
			}
		}
		if !d {
			d = r.formattedAsDate(ref, raw)
		}
		r.dateStyles[idx] = d
		return d
	}
	return r.formattedAsDate(ref, raw)
}

func (r *sheetReader) formattedAsDate(ref, raw string) bool {
	formatted, err := r.f.GetCellValue(r.sheet, ref)
	if err != nil || formatted == raw {
		return false
	}
	return dateTextRe.MatchString(strings.TrimSpace(formatted))
}

func builtinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

var (
	quotedRe  = regexp.MustCompile(`"[^"]*"`)
	bracketRe = regexp.MustCompile(`\[[^\]]*\]`)
	escapeRe  = regexp.MustCompile(`\\.`)
	dateTokRe = regexp.MustCompile(`[ydhms]`)
)

// isDateFormat reports whether a custom number format renders a date or
// time. Literals, colors and locale tags are ignored.
func isDateFormat(code string) bool {
	s := strings.ToLower(code)
	if s == "general" {
		return false
	}
	s = quotedRe.ReplaceAllString(s, "")
	s = bracketRe.ReplaceAllString(s, "")
	s = escapeRe.ReplaceAllString(s, "")
	return dateTokRe.MatchString(s)
}
