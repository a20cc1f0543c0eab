package definition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coolbeans/kep/pkg/table"
)

// ValidationError is one problem found in a specification.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no errors"
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(errs), strings.Join(messages, "\n  - "))
}

// ReaderSet reports which splitter names exist.
type ReaderSet interface {
	HasName(name string) bool
}

var (
	varnamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	unitPattern    = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Validate checks a specification. When readers is nil, explicit reader
// names are not checked.
func Validate(s *Specification, readers ReaderSet) ValidationErrors {
	var errs ValidationErrors

	if s.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "required field is missing"})
	}

	errs = append(errs, validateUnits(s)...)

	known := make(map[string]bool)
	for _, u := range s.Units {
		known[u.Unit] = true
	}

	seen := make(map[string]string)
	for i, d := range s.Definitions() {
		field := "default"
		if i > 0 {
			field = fmt.Sprintf("scopes[%d]", i-1)
		}
		if i > 0 && !d.IsScoped() {
			errs = append(errs, ValidationError{Field: field + ".markers", Message: "scoped definition needs at least one marker pair"})
		}
		if i == 0 && d.IsScoped() {
			errs = append(errs, ValidationError{Field: field + ".markers", Message: "default definition cannot be scoped"})
		}
		errs = append(errs, validateDefinition(field, d, known, seen, readers)...)
	}

	return errs
}

func validateUnits(s *Specification) ValidationErrors {
	var errs ValidationErrors

	if len(s.Units) == 0 {
		errs = append(errs, ValidationError{Field: "units", Message: "at least one unit entry is needed"})
	}
	for i, u := range s.Units {
		field := fmt.Sprintf("units[%d]", i)
		if strings.TrimSpace(u.Pattern) == "" {
			errs = append(errs, ValidationError{Field: field + ".pattern", Message: "pattern cannot be empty"})
		}
		if !unitPattern.MatchString(u.Unit) {
			errs = append(errs, ValidationError{Field: field + ".unit", Message: "must be lowercase alphanumeric with underscores", Value: u.Unit})
		}
	}

	mappings := s.UnitMappings()
	for _, pair := range mappings.Shadowed() {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("units[%d]", pair[1]),
			Message: fmt.Sprintf("never matches: units[%d] pattern %q occurs in it and comes first", pair[0], mappings[pair[0]].Pattern),
			Value:   mappings[pair[1]].Pattern,
		})
	}

	if len(s.UnitNames) > 0 {
		for _, unit := range mappings.Values() {
			if _, ok := s.UnitNames[unit]; !ok {
				errs = append(errs, ValidationError{Field: "unit_names", Message: "unit has no display name", Value: unit})
			}
		}
	}
	return errs
}

func validateDefinition(field string, d *Definition, known map[string]bool, seen map[string]string, readers ReaderSet) ValidationErrors {
	var errs ValidationErrors

	for i, m := range d.Markers {
		mf := fmt.Sprintf("%s.markers[%d]", field, i)
		if strings.TrimSpace(m.Start) == "" {
			errs = append(errs, ValidationError{Field: mf + ".start", Message: "marker line cannot be empty"})
		}
		if strings.TrimSpace(m.End) == "" {
			errs = append(errs, ValidationError{Field: mf + ".end", Message: "marker line cannot be empty"})
		}
	}

	if d.Reader != "" && readers != nil && !readers.HasName(d.Reader) {
		errs = append(errs, ValidationError{Field: field + ".reader", Message: "unknown reader", Value: d.Reader})
	}

	if len(d.Indicators) == 0 {
		errs = append(errs, ValidationError{Field: field + ".indicators", Message: "at least one indicator is needed"})
	}

	for i, ind := range d.Indicators {
		f := fmt.Sprintf("%s.indicators[%d]", field, i)
		if !varnamePattern.MatchString(ind.Varname) {
			errs = append(errs, ValidationError{Field: f + ".varname", Message: "must be uppercase alphanumeric with underscores", Value: ind.Varname})
		}
		if prev, ok := seen[ind.Varname]; ok && ind.Varname != "" {
			errs = append(errs, ValidationError{Field: f + ".varname", Message: "already defined at " + prev, Value: ind.Varname})
		} else {
			seen[ind.Varname] = f
		}
		if len(ind.Headers) == 0 {
			errs = append(errs, ValidationError{Field: f + ".headers", Message: "at least one header is needed"})
		}
		for j, h := range ind.Headers {
			if strings.TrimSpace(h) == "" {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.headers[%d]", f, j), Message: "header cannot be empty"})
			}
		}
		if len(ind.RequiredUnits) == 0 {
			errs = append(errs, ValidationError{Field: f + ".units", Message: "at least one required unit is needed"})
		}
		for j, unit := range ind.RequiredUnits {
			if !known[unit] {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.units[%d]", f, j), Message: "unit is not in the unit dictionary", Value: unit})
			}
		}
	}
	return errs
}

// Check validates s against the default splitters and returns an error if
// anything is wrong.
func Check(s *Specification) error {
	if errs := Validate(s, table.DefaultSplitters()); len(errs) > 0 {
		return errs
	}
	return nil
}
