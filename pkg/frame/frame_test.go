package frame

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/coolbeans/kep/pkg/table"
)

func obs(label string, freq table.Frequency, t time.Time, v float64) table.Observation {
	l, err := table.ParseLabel(label, []string{"bln_rub", "yoy", "rog"})
	if err != nil {
		panic(err)
	}
	return table.Observation{Label: l, Freq: freq, Time: t, Value: v}
}

func TestDedupe(t *testing.T) {
	in := []table.Observation{
		obs("GDP_bln_rub", table.Annual, table.YearEnd(1999), 4823),
		obs("GDP_bln_rub", table.Annual, table.YearEnd(1999), 4800),
		obs("GDP_bln_rub", table.Quarterly, table.QuarterEnd(1999, 4), 1447),
	}
	unique, dups := Dedupe(in)
	if len(unique) != 2 || len(dups) != 1 {
		t.Fatalf("Dedupe() = %d unique, %d duplicates", len(unique), len(dups))
	}
	if unique[0].Value != 4823 {
		t.Errorf("Dedupe() kept %g, want the first value 4823", unique[0].Value)
	}
}

func TestPivot(t *testing.T) {
	in := []table.Observation{
		obs("GDP_yoy", table.Quarterly, table.QuarterEnd(1999, 2), 99.2),
		obs("GDP_bln_rub", table.Quarterly, table.QuarterEnd(1999, 1), 901),
		obs("GDP_bln_rub", table.Quarterly, table.QuarterEnd(1999, 2), 1102),
		obs("GDP_bln_rub", table.Annual, table.YearEnd(1999), 4823),
	}
	f := Pivot(in, table.Quarterly)

	if got := strings.Join(f.Columns(), ","); got != "GDP_bln_rub,GDP_yoy" {
		t.Errorf("Columns() = %s", got)
	}
	if f.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", f.Len())
	}
	if !f.Index()[0].Equal(table.QuarterEnd(1999, 1)) {
		t.Errorf("Index()[0] = %v, want 1999-03-31", f.Index()[0])
	}
	if v, ok := f.Value("GDP_bln_rub", table.QuarterEnd(1999, 2)); !ok || v != 1102 {
		t.Errorf("Value() = (%g, %v), want (1102, true)", v, ok)
	}
	if _, ok := f.Value("GDP_yoy", table.QuarterEnd(1999, 1)); ok {
		t.Error("Value() of a missing cell should report false")
	}
	if f.Period(1) != 2 {
		t.Errorf("Period(1) = %d, want 2", f.Period(1))
	}
}

func TestDeaccumulateMonthly(t *testing.T) {
	label := "GOV_REVENUE_ACCUM_bln_rub"
	in := []table.Observation{
		obs(label, table.Monthly, table.MonthEnd(2016, 1), 100),
		obs(label, table.Monthly, table.MonthEnd(2016, 2), 250),
		obs(label, table.Monthly, table.MonthEnd(2016, 3), 420),
		obs(label, table.Monthly, table.MonthEnd(2017, 1), 120),
		obs(label, table.Monthly, table.MonthEnd(2017, 2), 260),
		obs("GDP_bln_rub", table.Monthly, table.MonthEnd(2016, 2), 7),
	}
	f := Build(in, table.Monthly)

	want := map[time.Time]float64{
		table.MonthEnd(2016, 1): 100,
		table.MonthEnd(2016, 2): 150,
		table.MonthEnd(2016, 3): 170,
		table.MonthEnd(2017, 1): 120,
		table.MonthEnd(2017, 2): 140,
	}
	for d, v := range want {
		got, ok := f.Value("GOV_REVENUE_bln_rub", d)
		if !ok || got != v {
			t.Errorf("Value(%s) = (%g, %v), want %g", d.Format("2006-01-02"), got, ok, v)
		}
	}
	if v, _ := f.Value("GDP_bln_rub", table.MonthEnd(2016, 2)); v != 7 {
		t.Errorf("other series changed: %g", v)
	}
}

func TestDeaccumulateQuarterly(t *testing.T) {
	label := "GOV_EXPENSE_ACCUM_bln_rub"
	var in []table.Observation
	for q, v := range []float64{420, 900, 1300, 2000} {
		in = append(in, obs(label, table.Quarterly, table.QuarterEnd(2016, q+1), v))
	}
	f := Build(in, table.Quarterly)

	for q, want := range []float64{420, 480, 400, 700} {
		got, _ := f.Value("GOV_EXPENSE_bln_rub", table.QuarterEnd(2016, q+1))
		if got != want {
			t.Errorf("Q%d = %g, want %g", q+1, got, want)
		}
	}
}

func TestDeaccumulateAnnualOnlyRenames(t *testing.T) {
	in := []table.Observation{obs("GOV_REVENUE_ACCUM_bln_rub", table.Annual, table.YearEnd(2016), 13460)}
	f := Build(in, table.Annual)
	if v, ok := f.Value("GOV_REVENUE_bln_rub", table.YearEnd(2016)); !ok || v != 13460 {
		t.Errorf("Value() = (%g, %v), want 13460", v, ok)
	}
}

func TestWriteCSV(t *testing.T) {
	in := []table.Observation{
		obs("GDP_bln_rub", table.Monthly, table.MonthEnd(2016, 1), 1.5),
		obs("GDP_yoy", table.Monthly, table.MonthEnd(2016, 2), 101),
	}
	var buf bytes.Buffer
	if err := Build(in, table.Monthly).WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := "time_index,year,month,GDP_bln_rub,GDP_yoy\n" +
		"2016-01-31,2016,1,1.5,\n" +
		"2016-02-29,2016,2,,101\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteXLSX(t *testing.T) {
	in := []table.Observation{
		obs("GDP_bln_rub", table.Annual, table.YearEnd(1999), 4823),
		obs("GDP_bln_rub", table.Quarterly, table.QuarterEnd(1999, 1), 901),
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, BuildAll(in)...); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	wb, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer wb.Close()

	if got := strings.Join(wb.GetSheetList(), ","); got != "a,q,m" {
		t.Errorf("sheets = %s, want a,q,m", got)
	}
	rows, err := wb.GetRows("q")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][2] != "qtr" || rows[1][3] != "901" {
		t.Errorf("q sheet = %v", rows)
	}
}

func TestRequire(t *testing.T) {
	f := Pivot([]table.Observation{
		obs("GDP_bln_rub", table.Annual, table.YearEnd(1999), 4823),
	}, table.Annual)

	ok := Checkpoint{Label: "GDP_bln_rub", Date: table.YearEnd(1999), Value: 4823}
	if err := f.Require(ok); err != nil {
		t.Errorf("Require() error = %v", err)
	}

	wrong := Checkpoint{Label: "GDP_bln_rub", Date: table.YearEnd(1999), Value: 4800}
	absent := Checkpoint{Label: "GDP_yoy", Date: table.YearEnd(1999), Value: 106.4}
	err := f.Require(ok, wrong, absent)
	if !errors.Is(err, ErrCheckpointFailed) {
		t.Fatalf("Require() error = %v, want ErrCheckpointFailed", err)
	}
	var cpErr *CheckpointError
	if !errors.As(err, &cpErr) || len(cpErr.Missing) != 2 {
		t.Errorf("Require() missing = %v, want 2 checkpoints", cpErr)
	}
}
