package table

import "fmt"

// Status tells how far a table's resolution got.
type Status int

const (
	Unresolved Status = iota
	PartiallyResolved
	Resolved
)

func (s Status) String() string {
	switch s {
	case PartiallyResolved:
		return "partially_resolved"
	case Resolved:
		return "resolved"
	default:
		return "unresolved"
	}
}

// Resolution is a table together with what is known about it. Values are
// copied, never updated in place: Resolve produces one from the header rows,
// and CarryVarname or Bind return new values.
type Resolution struct {
	table    *Table
	varname  string
	unit     string
	unknown  int
	splitter Splitter
}

// Resolve runs the header resolver over t.
func Resolve(t *Table, varnames, units Mappings) Resolution {
	hr := ResolveHeaders(t.headers, varnames, units)
	return Resolution{
		table:   t,
		varname: hr.Varname,
		unit:    hr.Unit,
		unknown: len(hr.Unknown),
	}
}

// Table returns the resolved table.
func (r Resolution) Table() *Table { return r.table }

// Varname returns the resolved variable name, if any.
func (r Resolution) Varname() string { return r.varname }

// Unit returns the resolved unit, if any.
func (r Resolution) Unit() string { return r.unit }

// Label returns the label; it is complete only when both parts resolved.
func (r Resolution) Label() Label { return Label{Varname: r.varname, Unit: r.unit} }

// UnknownLines is the number of header rows matched by no dictionary entry.
func (r Resolution) UnknownLines() int { return r.unknown }

// HasUnknownLines reports whether some header row was not recognised.
func (r Resolution) HasUnknownLines() bool { return r.unknown > 0 }

// Status reports Resolved once the label is complete and a splitter is bound.
func (r Resolution) Status() Status {
	switch {
	case r.Label().IsComplete() && r.splitter != nil:
		return Resolved
	case r.varname != "" || r.unit != "":
		return PartiallyResolved
	default:
		return Unresolved
	}
}

// CarryVarname fills a missing variable name from the preceding table.
// It only applies when every header row of this table was recognised, which
// is the layout of a unit-only sub-table following a labeled one.
func (r Resolution) CarryVarname(prev Resolution) (Resolution, bool) {
	if r.varname != "" || r.HasUnknownLines() || prev.varname == "" {
		return r, false
	}
	r.varname = prev.varname
	return r, true
}

// Bind attaches the splitter that decomposes the table's data rows.
func (r Resolution) Bind(s Splitter) Resolution {
	r.splitter = s
	return r
}

// Observations emits one observation per present value, in row order and,
// within a row, annual then quarterly then monthly. A table that is not
// Resolved emits nothing.
func (r Resolution) Observations() ([]Observation, error) {
	if r.Status() != Resolved {
		return nil, nil
	}
	label := r.Label()
	var out []Observation

	emit := func(row Row, cell string, freq Frequency, year, period int) error {
		v, ok, err := ParseNumber(cell)
		if err != nil {
			return &MalformedNumberError{Cell: cell, Row: row.Name()}
		}
		if !ok {
			return nil
		}
		o := Observation{Label: label, Freq: freq, Value: v}
		switch freq {
		case Annual:
			o.Time = YearEnd(year)
		case Quarterly:
			o.Time = QuarterEnd(year, period)
		case Monthly:
			o.Time = MonthEnd(year, period)
		}
		out = append(out, o)
		return nil
	}

	for _, row := range r.table.data {
		year, ok := row.Year()
		if !ok {
			return nil, fmt.Errorf("table %q: row %q has no year", r.table.Title(), row.Name())
		}
		s := r.splitter(row.Data())
		if s.HasAnnual {
			if err := emit(row, s.Annual, Annual, year, 0); err != nil {
				return nil, err
			}
		}
		for i, cell := range s.Quarterly {
			if err := emit(row, cell, Quarterly, year, i+1); err != nil {
				return nil, err
			}
		}
		for i, cell := range s.Monthly {
			if err := emit(row, cell, Monthly, year, i+1); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
