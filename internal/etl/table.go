package etl

import "fmt"

// NewTable builds a normalized table from a header row and raw data rows.
// Every cell goes through NormalizeValue, headers through CanonicalColumn.
// Rows and columns that are entirely null are dropped. Record indices keep
// each row's original position among the data rows.
func NewTable(source string, header []string, rows [][]any) *Table {
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	columns := make([]string, width)
	taken := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		var h string
		if i < len(header) {
			h = header[i]
		}
		c := CanonicalColumn(h)
		if c == "" {
			c = fmt.Sprintf("col_%d", i+1)
		}
		// Duplicates get the first free "_<n>" suffix.
		base := c
		for n := 2; taken[c]; n++ {
			c = fmt.Sprintf("%s_%d", base, n)
		}
		taken[c] = true
		columns[i] = c
	}

	type row struct {
		index  int
		values []any
	}
	nonNull := make([]int, width)
	kept := make([]row, 0, len(rows))
	for idx, raw := range rows {
		values := make([]any, width)
		empty := true
		for i := range values {
			if i >= len(raw) {
				continue
			}
			v := NormalizeValue(raw[i])
			if v == nil {
				continue
			}
			values[i] = v
			nonNull[i]++
			empty = false
		}
		if empty {
			continue
		}
		kept = append(kept, row{index: idx, values: values})
	}

	t := &Table{Name: CanonicalColumn(source), Source: source}
	var live []int
	for i, c := range columns {
		if nonNull[i] > 0 {
			live = append(live, i)
			t.Columns = append(t.Columns, c)
		}
	}
	t.Records = make([]Record, len(kept))
	for n, r := range kept {
		data := make(map[string]any, len(live))
		for _, i := range live {
			data[columns[i]] = r.values[i]
		}
		t.Records[n] = Record{Index: r.index, Data: data}
	}
	return t
}
