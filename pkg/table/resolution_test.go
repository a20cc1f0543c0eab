package table

import (
	"errors"
	"testing"
	"time"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func gdpTable() *Table {
	return NewTable(
		rowsOf([]string{"Oбъем ВВП, млрд.рублей / Gross domestic product, bln rubles"}),
		rowsOf([]string{"1999", "4823", "901", "1102", "1373", "1447"}),
	)
}

func TestObservationsAnnualQuarterly(t *testing.T) {
	varnames := Mappings{{Pattern: "Oбъем ВВП", Value: "GDP"}}
	r := Resolve(gdpTable(), varnames, testUnits)

	split, err := DefaultSplitters().Lookup("", r.Table().Width())
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	r = r.Bind(split)
	if r.Status() != Resolved {
		t.Fatalf("Status() = %v, want resolved", r.Status())
	}

	got, err := r.Observations()
	if err != nil {
		t.Fatalf("Observations() error = %v", err)
	}

	label := NewLabel("GDP", "bln_rub")
	want := []Observation{
		{Label: label, Freq: Annual, Time: date("1999-12-31"), Value: 4823},
		{Label: label, Freq: Quarterly, Time: date("1999-03-31"), Value: 901},
		{Label: label, Freq: Quarterly, Time: date("1999-06-30"), Value: 1102},
		{Label: label, Freq: Quarterly, Time: date("1999-09-30"), Value: 1373},
		{Label: label, Freq: Quarterly, Time: date("1999-12-31"), Value: 1447},
	}
	if len(got) != len(want) {
		t.Fatalf("Observations() returned %d values, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Label != want[i].Label || got[i].Freq != want[i].Freq ||
			!got[i].Time.Equal(want[i].Time) || got[i].Value != want[i].Value {
			t.Errorf("observation %d = %v, want %v", i, got[i], want[i])
		}
	}
	if label.String() != "GDP_bln_rub" {
		t.Errorf("Label.String() = %q, want GDP_bln_rub", label.String())
	}
}

func TestObservationsSkipAbsentValues(t *testing.T) {
	tbl := NewTable(
		rowsOf([]string{"Объем ВВП, млрд.рублей"}),
		rowsOf([]string{"20162)", "", "2149,4", "—", "3813,4"}),
	)
	r := Resolve(tbl, testVarnames, testUnits)
	split, _ := DefaultSplitters().Lookup(SplitAnnualQuarterly, 0)

	got, err := r.Bind(split).Observations()
	if err != nil {
		t.Fatalf("Observations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Observations() returned %d values, want 2: %v", len(got), got)
	}
	if !got[0].Time.Equal(date("2016-03-31")) || got[0].Value != 2149.4 {
		t.Errorf("first observation = %v", got[0])
	}
	if !got[1].Time.Equal(date("2016-09-30")) {
		t.Errorf("second observation = %v, want Q3", got[1])
	}
}

func TestObservationsPeriodEnds(t *testing.T) {
	cells := []string{"2020", "1"}
	for i := 0; i < 16; i++ {
		cells = append(cells, "1")
	}
	tbl := NewTable(rowsOf([]string{"Объем ВВП, млрд.рублей"}), rowsOf(cells))
	split, _ := DefaultSplitters().Lookup("", tbl.Width())

	got, err := Resolve(tbl, testVarnames, testUnits).Bind(split).Observations()
	if err != nil {
		t.Fatalf("Observations() error = %v", err)
	}
	if len(got) != 17 {
		t.Fatalf("Observations() returned %d values, want 17", len(got))
	}
	for _, o := range got {
		next := o.Time.AddDate(0, 0, 1)
		if next.Day() != 1 {
			t.Errorf("%v is not the last day of a month", o)
		}
		if o.Freq == Quarterly && int(o.Time.Month())%3 != 0 {
			t.Errorf("%v does not end a quarter", o)
		}
		if o.Freq == Annual && (o.Time.Month() != time.December || o.Time.Day() != 31) {
			t.Errorf("%v does not end the year", o)
		}
	}
	if feb := got[1+4+1]; !feb.Time.Equal(date("2020-02-29")) {
		t.Errorf("February observation time = %v, want 2020-02-29", feb.Time)
	}
}

func TestResolutionStatus(t *testing.T) {
	tbl := gdpTable()

	unresolved := Resolve(tbl, nil, nil)
	if unresolved.Status() != Unresolved {
		t.Errorf("Status() = %v, want unresolved", unresolved.Status())
	}
	if !unresolved.HasUnknownLines() {
		t.Error("HasUnknownLines() should be true when nothing matched")
	}

	partial := Resolve(tbl, nil, testUnits)
	if partial.Status() != PartiallyResolved {
		t.Errorf("Status() = %v, want partially resolved", partial.Status())
	}

	obs, err := partial.Observations()
	if err != nil || obs != nil {
		t.Errorf("Observations() on a partial resolution = (%v, %v), want (nil, nil)", obs, err)
	}
}

func TestCarryVarname(t *testing.T) {
	labeled := Resolve(NewTable(
		rowsOf([]string{"1.7. Инвестиции в основной капитал, млрд. рублей"}),
		rowsOf([]string{"1999", "670,4"}),
	), testVarnames, testUnits)

	unitOnly := Resolve(NewTable(
		rowsOf([]string{"в % к соответствующему периоду предыдущего года"}),
		rowsOf([]string{"1999", "105,3"}),
	), testVarnames, testUnits)

	got, carried := unitOnly.CarryVarname(labeled)
	if !carried || got.Varname() != "INVESTMENT" {
		t.Errorf("CarryVarname() = (%q, %v), want (INVESTMENT, true)", got.Varname(), carried)
	}
	if unitOnly.Varname() != "" {
		t.Error("CarryVarname() must not modify the receiver")
	}
	if got.Unit() != "yoy" {
		t.Errorf("Unit() = %q, want yoy", got.Unit())
	}

	withUnknown := Resolve(NewTable(
		rowsOf(
			[]string{"в % к соответствующему периоду предыдущего года"},
			[]string{"справочно: без учета субъектов малого предпринимательства"},
		),
		rowsOf([]string{"1999", "105,3"}),
	), testVarnames, testUnits)

	if _, carried := withUnknown.CarryVarname(labeled); carried {
		t.Error("CarryVarname() should not apply to a table with unknown header lines")
	}

	if _, carried := labeled.CarryVarname(unitOnly); carried {
		t.Error("CarryVarname() should not replace an existing variable name")
	}
}

func TestObservationsMalformedCell(t *testing.T) {
	// Classify rejects such rows; tables built by hand are checked again
	tbl := NewTable(
		rowsOf([]string{"Объем ВВП, млрд.рублей"}),
		rowsOf([]string{"1999", "n/a?"}),
	)
	split, _ := DefaultSplitters().Lookup(SplitAnnual, 0)
	_, err := Resolve(tbl, testVarnames, testUnits).Bind(split).Observations()
	if !errors.Is(err, ErrMalformedNumber) {
		t.Errorf("Observations() error = %v, want ErrMalformedNumber", err)
	}
}
