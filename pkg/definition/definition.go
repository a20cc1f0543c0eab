// Package definition describes what to extract from a bulletin: which header
// text names which variable, which units each variable must be found in, and
// which document segment a group of variables lives in.
package definition

import (
	"sort"

	"github.com/coolbeans/kep/pkg/scope"
	"github.com/coolbeans/kep/pkg/table"
)

// Indicator is one economic variable with the header text that identifies
// its tables and the units it is required in.
type Indicator struct {
	Varname       string   `yaml:"varname" json:"varname"`
	Headers       []string `yaml:"headers" json:"headers"`
	RequiredUnits []string `yaml:"units" json:"units"`
	Description   string   `yaml:"desc,omitempty" json:"desc,omitempty"`
}

// Required returns the labels this indicator must produce.
func (ind Indicator) Required() []table.Label {
	labels := make([]table.Label, 0, len(ind.RequiredUnits))
	for _, unit := range ind.RequiredUnits {
		labels = append(labels, table.NewLabel(ind.Varname, unit))
	}
	return labels
}

// Definition groups indicators parsed with the same rules. A definition with
// markers applies only to the rows between a start and end marker line.
type Definition struct {
	Name       string         `yaml:"name,omitempty" json:"name,omitempty"`
	Markers    []scope.Marker `yaml:"markers,omitempty" json:"markers,omitempty"`
	Reader     string         `yaml:"reader,omitempty" json:"reader,omitempty"`
	Indicators []Indicator    `yaml:"indicators" json:"indicators"`
}

// IsScoped reports whether the definition is bound to a document segment.
func (d *Definition) IsScoped() bool {
	return len(d.Markers) > 0
}

// Headers returns the header text to variable name dictionary in the order
// indicators and their headers were listed.
func (d *Definition) Headers() table.Mappings {
	var m table.Mappings
	for _, ind := range d.Indicators {
		for _, h := range ind.Headers {
			m = append(m, table.Mapping{Pattern: h, Value: ind.Varname})
		}
	}
	return m
}

// Required returns the labels the definition must produce, in order.
func (d *Definition) Required() []table.Label {
	var labels []table.Label
	for _, ind := range d.Indicators {
		labels = append(labels, ind.Required()...)
	}
	return labels
}

// Varnames lists the variable names in order.
func (d *Definition) Varnames() []string {
	names := make([]string, 0, len(d.Indicators))
	for _, ind := range d.Indicators {
		names = append(names, ind.Varname)
	}
	return names
}

// Append adds an indicator.
func (d *Definition) Append(ind Indicator) {
	d.Indicators = append(d.Indicators, ind)
}

// Title names the definition for logs and reports.
func (d *Definition) Title() string {
	switch {
	case d.Name != "":
		return d.Name
	case d.IsScoped():
		return d.Markers[0].Start
	default:
		return "default"
	}
}

// UnitEntry maps header text to a unit code.
type UnitEntry struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Unit    string `yaml:"unit" json:"unit"`
}

// Specification is the complete extraction configuration for one kind of
// bulletin: the unit dictionary shared by all definitions, the default
// definition applied to the whole document, and scoped definitions.
type Specification struct {
	Name      string            `yaml:"name" json:"name"`
	Version   string            `yaml:"version,omitempty" json:"version,omitempty"`
	Units     []UnitEntry       `yaml:"units" json:"units"`
	UnitNames map[string]string `yaml:"unit_names,omitempty" json:"unit_names,omitempty"`
	Default   Definition        `yaml:"default" json:"default"`
	Scopes    []Definition      `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// UnitMappings returns the unit dictionary in priority order.
func (s *Specification) UnitMappings() table.Mappings {
	m := make(table.Mappings, 0, len(s.Units))
	for _, u := range s.Units {
		m = append(m, table.Mapping{Pattern: u.Pattern, Value: u.Unit})
	}
	return m
}

// Definitions returns the default definition followed by scoped ones.
func (s *Specification) Definitions() []*Definition {
	defs := make([]*Definition, 0, 1+len(s.Scopes))
	defs = append(defs, &s.Default)
	for i := range s.Scopes {
		defs = append(defs, &s.Scopes[i])
	}
	return defs
}

// AddScope appends a scoped definition.
func (s *Specification) AddScope(d Definition) {
	s.Scopes = append(s.Scopes, d)
}

// Required returns the union of required labels across definitions.
func (s *Specification) Required() []table.Label {
	var labels []table.Label
	seen := make(map[table.Label]bool)
	for _, d := range s.Definitions() {
		for _, l := range d.Required() {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	return labels
}

// Headers returns the union of all header dictionaries, default first.
func (s *Specification) Headers() table.Mappings {
	var m table.Mappings
	for _, d := range s.Definitions() {
		m = append(m, d.Headers()...)
	}
	return m
}

// Varnames returns the sorted set of variable names.
func (s *Specification) Varnames() []string {
	set := make(map[string]bool)
	for _, d := range s.Definitions() {
		for _, v := range d.Varnames() {
			set[v] = true
		}
	}
	names := make([]string, 0, len(set))
	for v := range set {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}

// UnitName returns the display name of a unit, or the code itself.
func (s *Specification) UnitName(unit string) string {
	if name, ok := s.UnitNames[unit]; ok {
		return name
	}
	return unit
}

// Describe returns the description of varname, if any.
func (s *Specification) Describe(varname string) string {
	for _, d := range s.Definitions() {
		for _, ind := range d.Indicators {
			if ind.Varname == varname {
				return ind.Description
			}
		}
	}
	return ""
}
