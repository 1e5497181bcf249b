package parser

import (
	"strconv"
	"strings"
)

// Table is a fully materialized tabular dataset. Values are kept as their
// canonical text form; a missing value is the empty string.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Index returns the column position for name (case-insensitive), or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Value returns the trimmed cell at (row, col); out-of-range cells read as "".
func (t *Table) Value(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// IsNull reports whether a cell holds one of the missing-value markers
// written by spreadsheet and dataframe exports.
func IsNull(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "n/a", "null", "none":
		return true
	}
	return false
}

// ParseNumber parses a locale-tolerant numeric cell. Percent signs, non-breaking
// spaces, and thousands separators are stripped; when both ',' and '.' appear
// the last one is the decimal separator. Empty cells and "nan" are not numbers.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if IsNull(raw) {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)

	// Plain machine formatting is by far the common case.
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, true
	}

	var dec rune
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			dec = ','
		} else {
			dec = '.'
		}
	case cpos >= 0:
		// repeated commas can only be grouping
		if strings.Count(raw, ",") > 1 {
			dec = '.'
		} else {
			dec = ','
		}
	default:
		dec = '.'
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
