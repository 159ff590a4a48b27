package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"indicadores/internal/etl"
)

// ── CSV Directory Source ───────────────────────────────────
// Reads every *.csv file of a directory as one sheet, named after the
// file. Used for re-validating exported sheets and for cleaned outputs.

type csvDirSource struct{}

func init() { etl.RegisterSource(&csvDirSource{}) }

func (s *csvDirSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "csv_dir",
		Label: "CSV Directory",
		ConfigFields: []etl.ConfigField{
			{Key: "dir", Label: "Directory", Type: "dir", Required: true, Help: "Directory holding one CSV file per sheet"},
			{Key: "delimiter", Label: "Delimiter", Type: "string", Default: ",", Help: "Column delimiter (default: comma)"},
		},
	}
}

func (s *csvDirSource) Discover(ctx context.Context, cfg etl.SourceConfig) ([]etl.SheetInfo, error) {
	wb, err := s.Read(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return wb.Info(), nil
}

func (s *csvDirSource) Read(ctx context.Context, cfg etl.SourceConfig) (*etl.Workbook, error) {
	dir := cfg.String("dir")
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", etl.ErrSourceNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(paths)

	wb := &etl.Workbook{Path: dir}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := ReadCSVTable(p, delimiter(cfg))
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if err != nil {
			wb.Skipped = append(wb.Skipped, etl.SkippedSheet{Name: name, Err: err})
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

func delimiter(cfg etl.SourceConfig) rune {
	if d := cfg.String("delimiter"); d != "" {
		return []rune(d)[0]
	}
	return ','
}

// ReadCSVTable reads one CSV file into a normalized table named after
// the file. The first row is the header.
func ReadCSVTable(path string, comma rune) (*etl.Table, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", etl.ErrSheetRead, name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse csv: %v", etl.ErrSheetRead, name, err)
	}
	if len(records) == 0 {
		return etl.NewTable(name, nil, nil), nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	rows := make([][]any, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		rows[i] = row
	}
	return etl.NewTable(name, header, rows), nil
}
