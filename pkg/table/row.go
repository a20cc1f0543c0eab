// Package table segments rows of a statistical bulletin into tables, resolves
// each table's variable name and unit from its header text, and turns data
// rows into dated observations.
package table

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the classification of a row.
type Kind int

const (
	HeaderRow Kind = iota
	DataRow
)

func (k Kind) String() string {
	if k == DataRow {
		return "data"
	}
	return "header"
}

// yearPattern matches "1999", "20162)" and "2016 2),3)".
var yearPattern = regexp.MustCompile(`^(\d{4})(\s*\d+\)\s*,?)*$`)

// Row is one line of a document split into cells. A Row is immutable; use
// NewRow to build one.
type Row struct {
	cells []string
}

// NewRow copies cells into a new Row.
func NewRow(cells ...string) Row {
	c := make([]string, len(cells))
	copy(c, cells)
	return Row{cells: c}
}

// Len returns the number of cells, trailing empty cells included.
func (r Row) Len() int {
	return len(r.cells)
}

// Cells returns a copy of the row's cells.
func (r Row) Cells() []string {
	c := make([]string, len(r.cells))
	copy(c, r.cells)
	return c
}

// Name returns the first cell, trimmed. Header text and year labels live here.
func (r Row) Name() string {
	if len(r.cells) == 0 {
		return ""
	}
	return strings.TrimSpace(r.cells[0])
}

// Data returns the cells after the first one.
func (r Row) Data() []string {
	if len(r.cells) < 2 {
		return nil
	}
	c := make([]string, len(r.cells)-1)
	copy(c, r.cells[1:])
	return c
}

// Year returns the year in the first cell, ignoring footnote markers.
func (r Row) Year() (int, bool) {
	m := yearPattern.FindStringSubmatch(r.Name())
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// StartsWith reports whether the trimmed first cell begins with prefix. It is
// the only test used to locate scope marker lines.
func (r Row) StartsWith(prefix string) bool {
	return strings.HasPrefix(r.Name(), prefix)
}

// Contains reports whether the first cell contains text.
func (r Row) Contains(text string) bool {
	return strings.Contains(r.Name(), text)
}

func (r Row) String() string {
	return strings.Join(r.cells, "\t")
}

// Classify decides whether r is a data row: a year in the first cell and
// only empty or numeric cells after it. A year-led row with a cell that is
// not numeric is not demoted to a header; it fails with
// *MalformedNumberError because it points at a corrupted data line.
func Classify(r Row) (Kind, error) {
	if _, ok := r.Year(); !ok {
		return HeaderRow, nil
	}
	for _, cell := range r.cells[1:] {
		if _, _, err := ParseNumber(cell); err != nil {
			return HeaderRow, &MalformedNumberError{Cell: cell, Row: r.Name()}
		}
	}
	return DataRow, nil
}

// Rows converts a slice of cell slices into rows.
func Rows(lines [][]string) []Row {
	rows := make([]Row, len(lines))
	for i, cells := range lines {
		rows[i] = NewRow(cells...)
	}
	return rows
}
