package dataset

import (
	"errors"
	"fmt"
	"strings"

	"indicadores/internal/etl"
)

// Expectation names one output a consumer relies on. Files lists the
// accepted file names, the first being the canonical one.
type Expectation struct {
	Name  string
	Files []string
}

// Check is the verification outcome of one expectation.
type Check struct {
	Name    string   `json:"name"`
	File    string   `json:"file,omitempty"`
	Exists  bool     `json:"exists"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// OK reports whether the output exists, parses and has rows.
func (c Check) OK() bool { return c.Exists && c.Error == "" && c.Rows > 0 }

// Verify checks that every expected output exists in the store's
// directory and reports its shape. The first existing file name wins.
func (s *Store) Verify(expected []Expectation) []Check {
	out := make([]Check, 0, len(expected))
	for _, e := range expected {
		c := Check{Name: e.Name}
		for _, file := range e.Files {
			t, err := s.Get(file)
			if errors.Is(err, etl.ErrSourceNotFound) || errors.Is(err, ErrInvalidName) {
				continue
			}
			c.File = file
			c.Exists = true
			if err != nil {
				c.Error = err.Error()
				break
			}
			c.Rows = len(t.Records)
			c.Columns = t.Columns
			break
		}
		out = append(out, c)
	}
	return out
}

// Report renders verification checks as text.
func Report(checks []Check) string {
	var b strings.Builder
	b.WriteString("=== VERIFICACIÓN DE ARCHIVOS ===\n")
	ok := 0
	for _, c := range checks {
		switch {
		case !c.Exists:
			fmt.Fprintf(&b, "%s: no encontrado\n", c.Name)
		case c.Error != "":
			fmt.Fprintf(&b, "%s: error (%s)\n", c.Name, c.Error)
		default:
			if c.OK() {
				ok++
			}
			fmt.Fprintf(&b, "%s: %s.csv, %d filas, %d columnas\n", c.Name, c.File, c.Rows, len(c.Columns))
		}
	}
	fmt.Fprintf(&b, "\nArchivos correctos: %d/%d\n", ok, len(checks))
	return b.String()
}
