package etl

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ── Value normalization ────────────────────────────────────
// Cell values reach the validator as one of: nil, float64, bool, string.

var sentinels = map[string]struct{}{
	"": {}, "N/A": {}, "n/a": {}, "NULL": {}, "null": {}, "-": {},
}

var (
	numberRe   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

	numberCleaner = strings.NewReplacer("$", "", "%", "", ",", ".")
)

// NormalizeValue maps a raw cell to its normalized form. Sentinel strings
// and dates become nil, numeric strings using either decimal separator
// become float64 ("$" and "%" are dropped first), everything else is
// returned trimmed. It never fails.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time, *time.Time:
		// Dates only ever appear here when a numeric cell was misparsed.
		return nil
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		if math.IsNaN(float64(x)) {
			return nil
		}
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		return x
	case string:
		return normalizeString(x)
	default:
		return v
	}
}

func normalizeString(s string) any {
	s = strings.TrimSpace(s)
	if _, ok := sentinels[s]; ok {
		return nil
	}
	n := numberCleaner.Replace(s)
	n = strings.TrimSpace(n)
	if c := strings.Count(n, "."); c > 1 {
		// Keep only the last dot as the decimal separator.
		n = strings.Replace(n, ".", "", c-1)
	}
	if !numberRe.MatchString(n) {
		return s
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsInf(f, 0) {
		return s
	}
	return f
}

// IsNull reports whether a normalized value is missing.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// FoldAccents removes diacritics and lowercases s.
func FoldAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// CanonicalColumn turns a header into an identifier: accents folded,
// every run of non-alphanumerics collapsed to "_", lowercase, trimmed of
// "_". "Año" and "AÑO " both become "ano".
func CanonicalColumn(name string) string {
	s := FoldAccents(strings.TrimSpace(name))
	s = nonAlnumRe.ReplaceAllString(s, "_")
	return strings.Trim(strings.ToLower(s), "_")
}

// FormatValue renders a validated value for text outputs. Floats use the
// shortest representation that round-trips, nil is the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
