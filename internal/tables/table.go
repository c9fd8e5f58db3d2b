// Package tables extracts, cleans and scores tables from PDF documents. Engines
// are tried in a fixed order and the first that yields an accepted table wins.
package tables

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// MinRows and MinCols bound the size of an accepted table's data area.
const (
	MinRows = 2
	MinCols = 2
)

// Table is a rectangular matrix of cell strings. Header is nil until a header
// row has been identified.
type Table struct {
	Header []string
	Rows   [][]string
}

// Width returns the number of columns.
func (t Table) Width() int {
	w := len(t.Header)
	for _, r := range t.Rows {
		w = max(w, len(r))
	}
	return w
}

var (
	numericCell = regexp.MustCompile(`^[\d.,%-]+$`)
	wsRun       = regexp.MustCompile(`\s+`)
)

// Clean normalizes a raw table and reports whether it is large enough to keep.
// Cells are trimmed, ragged rows padded, and all-empty rows and columns dropped.
// A header-like first row is promoted to the header, header names have their
// whitespace collapsed, and columns that are mostly numeric get decimal commas
// turned into dots. Clean is idempotent.
func Clean(t Table) (Table, bool) {
	out := t.clone()
	out.trim()
	out.dropEmpty()
	if len(out.Rows) < MinRows || out.Width() < MinCols {
		return Table{}, false
	}

	if out.Header == nil && looksLikeHeader(out.Rows[0]) {
		out.Header = out.Rows[0]
		out.Rows = out.Rows[1:]
	}
	for i, h := range out.Header {
		out.Header[i] = strings.TrimSpace(wsRun.ReplaceAllString(h, " "))
	}

	for c := 0; c < out.Width(); c++ {
		if !mostlyNumeric(out.Rows, c) {
			continue
		}
		for _, r := range out.Rows {
			r[c] = strings.ReplaceAll(r[c], ",", ".")
		}
	}

	out.dropEmpty()
	if len(out.Rows) < MinRows || out.Width() < MinCols {
		return Table{}, false
	}
	return out, true
}

// Score rates a cleaned table: larger and denser tables score higher, and a
// fully named header earns a 20% bonus.
func Score(t Table) float64 {
	rows, cols := len(t.Rows), t.Width()
	if rows == 0 || cols == 0 {
		return 0
	}
	empty := 0
	for _, r := range t.Rows {
		for c := 0; c < cols; c++ {
			if c >= len(r) || r[c] == "" {
				empty++
			}
		}
	}
	meanEmpty := float64(empty) / float64(rows*cols)

	bonus := 0.0
	if t.Header != nil {
		bonus = 0.2
		for _, h := range t.Header {
			if h == "" {
				bonus = 0
				break
			}
		}
	}
	return float64(rows*cols) / (1 + 10*meanEmpty) * (1 + bonus)
}

// Round3 rounds a score to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func (t Table) clone() Table {
	out := Table{}
	if t.Header != nil {
		out.Header = append([]string{}, t.Header...)
	}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string{}, r...)
	}
	return out
}

// trim strips cells and pads every row, and the header, to the full width.
func (t *Table) trim() {
	w := t.Width()
	if t.Header != nil {
		t.Header = pad(t.Header, w)
		for i := range t.Header {
			t.Header[i] = strings.TrimSpace(t.Header[i])
		}
	}
	for i, r := range t.Rows {
		r = pad(r, w)
		for j := range r {
			r[j] = strings.TrimSpace(r[j])
		}
		t.Rows[i] = r
	}
}

// dropEmpty removes rows with no content, then columns with no content in any
// data row.
func (t *Table) dropEmpty() {
	rows := t.Rows[:0]
	for _, r := range t.Rows {
		if !allEmpty(r) {
			rows = append(rows, r)
		}
	}
	t.Rows = rows

	w := t.Width()
	keep := make([]int, 0, w)
	for c := 0; c < w; c++ {
		for _, r := range t.Rows {
			if c < len(r) && r[c] != "" {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == w {
		return
	}
	if t.Header != nil {
		t.Header = project(t.Header, keep)
	}
	for i, r := range t.Rows {
		t.Rows[i] = project(r, keep)
	}
}

func looksLikeHeader(row []string) bool {
	words := strings.Fields(strings.Join(row, " "))
	caps := 0
	for _, w := range words {
		if isTitle(w) || isUpper(w) {
			caps++
		}
	}
	return caps >= max(1, len(words)/3)
}

// isTitle reports whether w is title-cased: it has a cased letter, uppercase
// letters only follow uncased runes and lowercase letters only follow cased ones.
func isTitle(w string) bool {
	cased, prevCased := false, false
	for _, r := range w {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			cased, prevCased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			cased, prevCased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

func isUpper(w string) bool {
	cased := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func mostlyNumeric(rows [][]string, c int) bool {
	total, numeric := 0, 0
	for _, r := range rows {
		if c >= len(r) || r[c] == "" {
			continue
		}
		total++
		if numericCell.MatchString(r[c]) {
			numeric++
		}
	}
	return total > 0 && float64(numeric)/float64(total) > 0.8
}

func allEmpty(r []string) bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}

func pad(r []string, w int) []string {
	for len(r) < w {
		r = append(r, "")
	}
	return r
}

func project(r []string, keep []int) []string {
	out := make([]string, len(keep))
	for i, c := range keep {
		if c < len(r) {
			out[i] = r[c]
		}
	}
	return out
}
