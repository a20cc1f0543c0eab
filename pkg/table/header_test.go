package table

import (
	"reflect"
	"testing"
)

var testUnits = Mappings{
	{Pattern: "млрд.рублей", Value: "bln_rub"},
	{Pattern: "млрд. рублей", Value: "bln_rub"},
	{Pattern: "период с начала отчетного года в % к соответствующему периоду предыдущего года", Value: "ytd"},
	{Pattern: "в % к соответствующему периоду предыдущего года", Value: "yoy"},
	{Pattern: "в % к предыдущему периоду", Value: "rog"},
}

var testVarnames = Mappings{
	{Pattern: "Объем ВВП", Value: "GDP"},
	{Pattern: "Инвестиции в основной капитал", Value: "INVESTMENT"},
}

func TestMappingsMatchPriority(t *testing.T) {
	row := NewRow("период с начала отчетного года в % к соответствующему периоду предыдущего года")

	got, ok := testUnits.Match(row)
	if !ok || got != "ytd" {
		t.Errorf("Match() = (%q, %v), want (ytd, true)", got, ok)
	}

	reversed := Mappings{testUnits[3], testUnits[2]}
	got, _ = reversed.Match(row)
	if got != "yoy" {
		t.Errorf("Match() with general phrase first = %q, want yoy", got)
	}
}

func TestMappingsShadowed(t *testing.T) {
	if got := testUnits.Shadowed(); len(got) != 0 {
		t.Errorf("Shadowed() = %v, want none", got)
	}

	bad := Mappings{
		{Pattern: "%", Value: "pct"},
		{Pattern: "в % к ВВП", Value: "gdp_percent"},
		{Pattern: "млрд.рублей", Value: "bln_rub"},
		{Pattern: "млрд.рублей в год", Value: "bln_rub"},
	}
	want := [][2]int{{0, 1}}
	if got := bad.Shadowed(); !reflect.DeepEqual(got, want) {
		t.Errorf("Shadowed() = %v, want %v", got, want)
	}
}

func TestMappingsValues(t *testing.T) {
	want := []string{"bln_rub", "ytd", "yoy", "rog"}
	if got := testUnits.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}

func TestResolveHeaders(t *testing.T) {
	tests := []struct {
		name        string
		headers     [][]string
		wantVarname string
		wantUnit    string
		wantUnknown int
	}{
		{
			name:        "name and unit on one line",
			headers:     [][]string{{"Объем ВВП, млрд.рублей / Gross domestic product, bln rubles"}},
			wantVarname: "GDP",
			wantUnit:    "bln_rub",
		},
		{
			name: "numbered section title",
			headers: [][]string{
				{"1.7. Инвестиции в основной капитал1), млрд. рублей / Fixed capital investments1), bln rubles"},
			},
			wantVarname: "INVESTMENT",
			wantUnit:    "bln_rub",
		},
		{
			name:     "unit only",
			headers:  [][]string{{"в % к предыдущему периоду / percent of previous period"}},
			wantUnit: "rog",
		},
		{
			name: "unknown line",
			headers: [][]string{
				{"Объем ВВП"},
				{"в текущих ценах"},
			},
			wantVarname: "GDP",
			wantUnknown: 1,
		},
		{
			name:        "later unit overrides earlier",
			headers:     [][]string{{"млрд.рублей"}, {"в % к предыдущему периоду"}},
			wantUnit:    "rog",
			wantUnknown: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveHeaders(Rows(tt.headers), testVarnames, testUnits)
			if got.Varname != tt.wantVarname {
				t.Errorf("Varname = %q, want %q", got.Varname, tt.wantVarname)
			}
			if got.Unit != tt.wantUnit {
				t.Errorf("Unit = %q, want %q", got.Unit, tt.wantUnit)
			}
			if len(got.Unknown) != tt.wantUnknown {
				t.Errorf("Unknown = %d rows, want %d", len(got.Unknown), tt.wantUnknown)
			}
		})
	}
}
