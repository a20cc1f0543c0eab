package table

import (
	"fmt"
	"strings"
	"time"
)

// Frequency of an observation.
type Frequency string

const (
	Annual    Frequency = "a"
	Quarterly Frequency = "q"
	Monthly   Frequency = "m"
)

// Frequencies lists all frequencies in output order.
var Frequencies = []Frequency{Annual, Quarterly, Monthly}

// Label identifies a time series: a variable name and a unit.
type Label struct {
	Varname string `json:"varname" yaml:"varname"`
	Unit    string `json:"unit" yaml:"unit"`
}

// NewLabel builds a Label.
func NewLabel(varname, unit string) Label {
	return Label{Varname: varname, Unit: unit}
}

// String serializes the label as "{varname}_{unit}".
func (l Label) String() string {
	return l.Varname + "_" + l.Unit
}

// IsComplete reports whether both parts are set.
func (l Label) IsComplete() bool {
	return l.Varname != "" && l.Unit != ""
}

// ParseLabel splits "GDP_bln_rub" into a variable name and a unit using the
// set of known units, since both parts may contain underscores.
func ParseLabel(s string, units []string) (Label, error) {
	var best Label
	for _, unit := range units {
		suffix := "_" + unit
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) && len(unit) > len(best.Unit) {
			best = Label{Varname: strings.TrimSuffix(s, suffix), Unit: unit}
		}
	}
	if !best.IsComplete() {
		return Label{}, fmt.Errorf("label %q has no known unit suffix", s)
	}
	return best, nil
}

// Observation is one value of a time series. Time is the last day of the
// period the value belongs to.
type Observation struct {
	Label Label     `json:"label"`
	Freq  Frequency `json:"freq"`
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

func (o Observation) String() string {
	return fmt.Sprintf("%s %s %s %g", o.Label, o.Freq, o.Time.Format("2006-01-02"), o.Value)
}

// YearEnd returns December 31 of year.
func YearEnd(year int) time.Time {
	return MonthEnd(year, 12)
}

// QuarterEnd returns the last day of the quarter's final month.
func QuarterEnd(year, quarter int) time.Time {
	return MonthEnd(year, quarter*3)
}

// MonthEnd returns the last calendar day of month.
func MonthEnd(year, month int) time.Time {
	// day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}
