// Package frame arranges observations into date by label grids, one per
// frequency, and writes them out.
package frame

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/coolbeans/kep/pkg/table"
)

// Frame is a grid of values: one row per period end date, one column per
// label. Missing cells hold NaN.
type Frame struct {
	Freq    table.Frequency
	index   []time.Time
	columns []string
	cells   [][]float64 // [row][column]
}

// Dedupe keeps the first observation for each (frequency, label, date) and
// returns the later ones separately.
func Dedupe(obs []table.Observation) (unique, duplicates []table.Observation) {
	type key struct {
		freq  table.Frequency
		label table.Label
		date  time.Time
	}
	seen := make(map[key]bool, len(obs))
	for _, o := range obs {
		k := key{o.Freq, o.Label, o.Time.UTC()}
		if seen[k] {
			duplicates = append(duplicates, o)
			continue
		}
		seen[k] = true
		unique = append(unique, o)
	}
	return unique, duplicates
}

// Pivot builds the grid for one frequency. Observations of other
// frequencies are ignored and duplicates are dropped, first one wins.
// Columns are sorted by label, rows by date.
func Pivot(obs []table.Observation, freq table.Frequency) *Frame {
	var selected []table.Observation
	for _, o := range obs {
		if o.Freq == freq {
			selected = append(selected, o)
		}
	}
	selected, _ = Dedupe(selected)

	dates := make(map[time.Time]bool)
	labels := make(map[string]bool)
	for _, o := range selected {
		dates[o.Time.UTC()] = true
		labels[o.Label.String()] = true
	}

	f := &Frame{Freq: freq}
	for d := range dates {
		f.index = append(f.index, d)
	}
	sort.Slice(f.index, func(i, j int) bool { return f.index[i].Before(f.index[j]) })
	for l := range labels {
		f.columns = append(f.columns, l)
	}
	sort.Strings(f.columns)

	rowOf := make(map[time.Time]int, len(f.index))
	for i, d := range f.index {
		rowOf[d] = i
	}
	colOf := make(map[string]int, len(f.columns))
	for j, c := range f.columns {
		colOf[c] = j
	}

	f.cells = make([][]float64, len(f.index))
	for i := range f.cells {
		row := make([]float64, len(f.columns))
		for j := range row {
			row[j] = math.NaN()
		}
		f.cells[i] = row
	}
	for _, o := range selected {
		f.cells[rowOf[o.Time.UTC()]][colOf[o.Label.String()]] = o.Value
	}
	return f
}

// Build pivots obs and converts accumulated budget series to per-period
// values.
func Build(obs []table.Observation, freq table.Frequency) *Frame {
	f := Pivot(obs, freq)
	f.Deaccumulate()
	return f
}

// BuildAll builds annual, quarterly and monthly frames.
func BuildAll(obs []table.Observation) []*Frame {
	frames := make([]*Frame, 0, len(table.Frequencies))
	for _, freq := range table.Frequencies {
		frames = append(frames, Build(obs, freq))
	}
	return frames
}

// Len is the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Empty reports whether the frame has no values.
func (f *Frame) Empty() bool { return len(f.index) == 0 || len(f.columns) == 0 }

// Index returns the row dates.
func (f *Frame) Index() []time.Time { return append([]time.Time(nil), f.index...) }

// Columns returns the column labels.
func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

// Value returns the cell at (label, date).
func (f *Frame) Value(label string, date time.Time) (float64, bool) {
	j := f.column(label)
	if j < 0 {
		return 0, false
	}
	date = date.UTC()
	i := sort.Search(len(f.index), func(i int) bool { return !f.index[i].Before(date) })
	if i == len(f.index) || !f.index[i].Equal(date) {
		return 0, false
	}
	v := f.cells[i][j]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func (f *Frame) column(label string) int {
	for j, c := range f.columns {
		if c == label {
			return j
		}
	}
	return -1
}

// Period returns the quarter or month number of row i, or 0 for annual
// frames.
func (f *Frame) Period(i int) int {
	switch f.Freq {
	case table.Quarterly:
		return (int(f.index[i].Month())-1)/3 + 1
	case table.Monthly:
		return int(f.index[i].Month())
	default:
		return 0
	}
}

const accumSuffix = "_ACCUM"

// isAccumulated matches budget series reported as year-to-date totals.
func isAccumulated(label string) bool {
	return strings.HasPrefix(label, "GOV") && strings.Contains(label, "ACCUM")
}

// Deaccumulate turns year-to-date budget columns (labels starting with GOV
// and containing ACCUM) into per-period values: the first period of each year
// is kept, later periods become the difference with the row before. Then
// "_ACCUM" is dropped from their labels. Annual frames are only renamed.
func (f *Frame) Deaccumulate() {
	firstMonth := 0
	switch f.Freq {
	case table.Quarterly:
		firstMonth = 3
	case table.Monthly:
		firstMonth = 1
	}

	for j, c := range f.columns {
		if !isAccumulated(c) {
			continue
		}
		if firstMonth > 0 {
			f.difference(j, firstMonth)
		}
	}
	f.renameAccumulated()
}

func (f *Frame) difference(j, firstMonth int) {
	prev := math.NaN()
	for i := range f.index {
		v := f.cells[i][j]
		if int(f.index[i].Month()) != firstMonth {
			// NaN on either side leaves NaN
			f.cells[i][j] = v - prev
		}
		prev = v
	}
}

func (f *Frame) renameAccumulated() {
	taken := make(map[string]bool, len(f.columns))
	for _, c := range f.columns {
		taken[c] = true
	}
	for j, c := range f.columns {
		if !strings.Contains(c, accumSuffix) {
			continue
		}
		renamed := strings.Replace(c, accumSuffix, "", 1)
		if taken[renamed] {
			continue
		}
		delete(taken, c)
		taken[renamed] = true
		f.columns[j] = renamed
	}
}
