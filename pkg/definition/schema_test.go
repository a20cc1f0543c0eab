package definition

import (
	"strings"
	"testing"

	"github.com/coolbeans/kep/pkg/scope"
	"github.com/coolbeans/kep/pkg/table"
)

func minimal() *Specification {
	return &Specification{
		Name: "test",
		Units: []UnitEntry{
			{Pattern: "млрд.рублей", Unit: "bln_rub"},
			{Pattern: "в % к соответствующему периоду предыдущего года", Unit: "yoy"},
		},
		Default: Definition{Indicators: []Indicator{
			{Varname: "GDP", Headers: []string{"Объем ВВП"}, RequiredUnits: []string{"bln_rub", "yoy"}},
		}},
	}
}

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateMinimal(t *testing.T) {
	if errs := Validate(minimal(), table.DefaultSplitters()); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Specification)
		field  string
	}{
		{
			name:   "missing name",
			modify: func(s *Specification) { s.Name = "" },
			field:  "name",
		},
		{
			name:   "unknown required unit",
			modify: func(s *Specification) { s.Default.Indicators[0].RequiredUnits = []string{"bln_usd"} },
			field:  "default.indicators[0].units[0]",
		},
		{
			name:   "lowercase varname",
			modify: func(s *Specification) { s.Default.Indicators[0].Varname = "gdp" },
			field:  "default.indicators[0].varname",
		},
		{
			name:   "no headers",
			modify: func(s *Specification) { s.Default.Indicators[0].Headers = nil },
			field:  "default.indicators[0].headers",
		},
		{
			name:   "blank header",
			modify: func(s *Specification) { s.Default.Indicators[0].Headers = []string{"  "} },
			field:  "default.indicators[0].headers[0]",
		},
		{
			name: "shadowed unit",
			modify: func(s *Specification) {
				s.Units = append([]UnitEntry{{Pattern: "%", Unit: "pct"}}, s.Units...)
			},
			field: "units[2]",
		},
		{
			name: "empty end marker",
			modify: func(s *Specification) {
				s.AddScope(Definition{
					Markers:    []scope.Marker{{Start: "1.9.", End: ""}},
					Indicators: []Indicator{{Varname: "EXPORT", Headers: []string{"экспорт"}, RequiredUnits: []string{"bln_rub"}}},
				})
			},
			field: "scopes[0].markers[0].end",
		},
		{
			name: "scope without markers",
			modify: func(s *Specification) {
				s.AddScope(Definition{Indicators: []Indicator{{Varname: "EXPORT", Headers: []string{"экспорт"}, RequiredUnits: []string{"bln_rub"}}}})
			},
			field: "scopes[0].markers",
		},
		{
			name: "duplicate varname",
			modify: func(s *Specification) {
				s.AddScope(Definition{
					Markers:    []scope.Marker{{Start: "1.9.", End: "1.10."}},
					Indicators: []Indicator{{Varname: "GDP", Headers: []string{"ВВП"}, RequiredUnits: []string{"yoy"}}},
				})
			},
			field: "scopes[0].indicators[0].varname",
		},
		{
			name:   "unknown reader",
			modify: func(s *Specification) { s.Default.Reader = "biennial" },
			field:  "default.reader",
		},
		{
			name:   "unit without display name",
			modify: func(s *Specification) { s.UnitNames = map[string]string{"bln_rub": "млрд.руб."} },
			field:  "unit_names",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := minimal()
			tt.modify(s)
			errs := Validate(s, table.DefaultSplitters())
			if !hasField(errs, tt.field) {
				t.Errorf("Validate() = %v, want an error on %s", errs, tt.field)
			}
		})
	}
}

func TestValidateSkipsReadersWithoutRegistry(t *testing.T) {
	s := minimal()
	s.Default.Reader = "biennial"
	if errs := Validate(s, nil); len(errs) != 0 {
		t.Errorf("Validate(nil readers) = %v, want no errors", errs)
	}
}

func TestValidationErrorsError(t *testing.T) {
	var none ValidationErrors
	if none.Error() != "no errors" {
		t.Errorf("Error() = %q", none.Error())
	}

	one := ValidationErrors{{Field: "name", Message: "required field is missing"}}
	if got := one.Error(); got != "name: required field is missing" {
		t.Errorf("Error() = %q", got)
	}

	two := append(one, ValidationError{Field: "units", Message: "bad", Value: 3})
	got := two.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "(got: 3)") {
		t.Errorf("Error() = %q", got)
	}
}
