package table

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrUnknownRowShape is returned when no splitter is registered for a key.
var ErrUnknownRowShape = errors.New("unknown row shape")

// UnknownRowShapeError carries the key that failed to resolve.
type UnknownRowShapeError struct {
	Name  string
	Width int
}

func (e *UnknownRowShapeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unknown row shape: no splitter named %q", e.Name)
	}
	return fmt.Sprintf("unknown row shape: no splitter for rows of %d columns", e.Width)
}

func (e *UnknownRowShapeError) Unwrap() error {
	return ErrUnknownRowShape
}

// Split holds the cells of one data row arranged by period. Quarterly and
// Monthly are ordered from the first period; missing periods are absent from
// the tail, and empty cells inside stay in place.
type Split struct {
	Annual    string
	HasAnnual bool
	Quarterly []string
	Monthly   []string
}

// Splitter decomposes the cells of a data row, year cell excluded.
type Splitter func(cells []string) Split

// Named splitter keys.
const (
	SplitAnnual                 = "annual"
	SplitQuarterly              = "quarterly"
	SplitAnnualQuarterly        = "annual_quarterly"
	SplitMonthly                = "monthly"
	SplitAnnualMonthly          = "annual_monthly"
	SplitQuarterlyMonthly       = "quarterly_monthly"
	SplitAnnualQuarterlyMonthly = "annual_quarterly_monthly"
	SplitFiscal                 = "fiscal"
)

// SplitterRegistry maps an explicit name or a row width (year cell included)
// to a Splitter. Build it once and share it; lookups do not modify it.
type SplitterRegistry struct {
	byName  map[string]Splitter
	byWidth map[int]Splitter
}

// NewSplitterRegistry creates an empty registry.
func NewSplitterRegistry() *SplitterRegistry {
	return &SplitterRegistry{
		byName:  make(map[string]Splitter),
		byWidth: make(map[int]Splitter),
	}
}

// DefaultSplitters returns a registry with the row shapes found in bulletin
// tables.
func DefaultSplitters() *SplitterRegistry {
	r := NewSplitterRegistry()
	r.Register(SplitAnnual, 2, periods(true, 0, 0))
	r.Register(SplitQuarterly, 5, periods(false, 4, 0))
	r.Register(SplitAnnualQuarterly, 6, periods(true, 4, 0))
	r.Register(SplitMonthly, 13, periods(false, 0, 12))
	r.Register(SplitAnnualMonthly, 14, periods(true, 0, 12))
	r.Register(SplitQuarterlyMonthly, 17, periods(false, 4, 12))
	r.Register(SplitAnnualQuarterlyMonthly, 18, periods(true, 4, 12))
	r.RegisterName(SplitFiscal, splitFiscal)
	return r
}

// Register adds a splitter under a name and, when width is positive, a row
// width. A later registration replaces an earlier one.
func (r *SplitterRegistry) Register(name string, width int, s Splitter) {
	if name != "" {
		r.byName[name] = s
	}
	if width > 0 {
		r.byWidth[width] = s
	}
}

// RegisterName adds a splitter that can only be selected by name.
func (r *SplitterRegistry) RegisterName(name string, s Splitter) {
	r.Register(name, 0, s)
}

// Lookup returns the splitter for name, or for width when name is empty.
func (r *SplitterRegistry) Lookup(name string, width int) (Splitter, error) {
	if name != "" {
		if s, ok := r.byName[name]; ok {
			return s, nil
		}
		return nil, &UnknownRowShapeError{Name: name}
	}
	if s, ok := r.byWidth[width]; ok {
		return s, nil
	}
	return nil, &UnknownRowShapeError{Width: width}
}

// HasName reports whether a splitter is registered under name.
func (r *SplitterRegistry) HasName(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Keys lists registered names and widths, sorted.
func (r *SplitterRegistry) Keys() []string {
	keys := make([]string, 0, len(r.byName)+len(r.byWidth))
	for name := range r.byName {
		keys = append(keys, name)
	}
	widths := make([]int, 0, len(r.byWidth))
	for w := range r.byWidth {
		widths = append(widths, w)
	}
	sort.Strings(keys)
	sort.Ints(widths)
	for _, w := range widths {
		keys = append(keys, strconv.Itoa(w))
	}
	return keys
}

// periods builds a positional splitter: an optional annual cell, then q
// quarterly cells, then m monthly cells.
func periods(annual bool, q, m int) Splitter {
	return func(cells []string) Split {
		var s Split
		pos := 0
		if annual {
			if len(cells) > 0 {
				s.Annual = cells[0]
				s.HasAnnual = true
			}
			pos = 1
		}
		s.Quarterly = take(cells, pos, q)
		s.Monthly = take(cells, pos+q, m)
		return s
	}
}

// splitFiscal reads budget tables: the annual value followed by cumulative
// values for January to November. December and the fourth quarter equal the
// annual total; earlier quarters are the March, June and September values.
func splitFiscal(cells []string) Split {
	s := Split{}
	if len(cells) == 0 {
		return s
	}
	s.Annual = cells[0]
	s.HasAnnual = true
	months := take(cells, 1, 11)
	if len(months) == 11 {
		months = append(months, s.Annual)
	}
	s.Monthly = months
	for _, month := range []int{3, 6, 9, 12} {
		if len(months) < month {
			break
		}
		s.Quarterly = append(s.Quarterly, months[month-1])
	}
	return s
}

func take(cells []string, from, n int) []string {
	if n == 0 || from >= len(cells) {
		return nil
	}
	to := from + n
	if to > len(cells) {
		to = len(cells)
	}
	out := make([]string, to-from)
	copy(out, cells[from:to])
	return out
}
