// Package scope locates the part of a document that belongs to a scoped
// definition. A scope is bounded by a start and an end marker line; since
// bulletins renumber and rename sections between releases, a scope lists
// several alternative marker pairs and the first pair present wins.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coolbeans/kep/pkg/table"
)

// ErrBoundaryNotFound is returned when no marker pair is present.
var ErrBoundaryNotFound = errors.New("boundary not found")

// Marker is one alternative spelling of a scope's start and end lines.
type Marker struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

func (m Marker) String() string {
	return fmt.Sprintf("<%s> .. <%s>", m.Start, m.End)
}

// Candidate records whether each side of a marker pair was found.
type Candidate struct {
	Marker     Marker
	StartFound bool
	EndFound   bool
}

// Matched reports whether both lines were found.
func (c Candidate) Matched() bool {
	return c.StartFound && c.EndFound
}

// BoundaryNotFoundError lists every pair tried, in order.
type BoundaryNotFoundError struct {
	Candidates []Candidate
	Rows       int
}

func (e *BoundaryNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("start or end boundary not found")
	for _, c := range e.Candidates {
		fmt.Fprintf(&b, "\n  start %s %s", foundLabel(c.StartFound), shorten(c.Marker.Start))
		fmt.Fprintf(&b, "\n  end   %s %s", foundLabel(c.EndFound), shorten(c.Marker.End))
	}
	fmt.Fprintf(&b, "\n  searched %d rows", e.Rows)
	return b.String()
}

func (e *BoundaryNotFoundError) Unwrap() error {
	return ErrBoundaryNotFound
}

func foundLabel(found bool) string {
	if found {
		return "found:    "
	}
	return "NOT found:"
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) > 40 {
		return fmt.Sprintf("<%s...>", string(r[:40]))
	}
	return fmt.Sprintf("<%s>", s)
}

// Find returns the index of the first row starting with line, or -1.
func Find(line string, rows []table.Row) int {
	for i, r := range rows {
		if r.StartsWith(line) {
			return i
		}
	}
	return -1
}

// Resolve tries markers in order and returns the first pair whose start and
// end lines both occur in rows. The two lines are searched independently:
// an end line found before the start line still matches.
func Resolve(markers []Marker, rows []table.Row) (Marker, error) {
	candidates := make([]Candidate, 0, len(markers))
	for _, m := range markers {
		c := Candidate{
			Marker:     m,
			StartFound: Find(m.Start, rows) >= 0,
			EndFound:   Find(m.End, rows) >= 0,
		}
		if c.Matched() {
			return m, nil
		}
		candidates = append(candidates, c)
	}
	return Marker{}, &BoundaryNotFoundError{Candidates: candidates, Rows: len(rows)}
}

// Slice returns the rows from the start line to the end line, both
// included. The end line is looked up after the start line first; if it only
// occurs earlier, the span runs between the two positions found.
func Slice(m Marker, rows []table.Row) ([]table.Row, error) {
	start := Find(m.Start, rows)
	if start < 0 {
		return nil, &BoundaryNotFoundError{
			Candidates: []Candidate{{Marker: m, EndFound: Find(m.End, rows) >= 0}},
			Rows:       len(rows),
		}
	}
	end := -1
	if i := Find(m.End, rows[start:]); i >= 0 {
		end = start + i
	} else {
		end = Find(m.End, rows)
	}
	if end < 0 {
		return nil, &BoundaryNotFoundError{
			Candidates: []Candidate{{Marker: m, StartFound: true}},
			Rows:       len(rows),
		}
	}
	if end < start {
		start, end = end, start
	}
	return append([]table.Row(nil), rows[start:end+1]...), nil
}

// Segment resolves markers against rows and returns the bounded rows along
// with the marker pair that matched.
func Segment(markers []Marker, rows []table.Row) ([]table.Row, Marker, error) {
	m, err := Resolve(markers, rows)
	if err != nil {
		return nil, Marker{}, err
	}
	segment, err := Slice(m, rows)
	if err != nil {
		return nil, Marker{}, err
	}
	return segment, m, nil
}
