package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/coolbeans/kep/pkg/table"
)

// Header returns the column titles used by the writers.
func (f *Frame) Header() []string {
	header := []string{"time_index", "year"}
	switch f.Freq {
	case table.Quarterly:
		header = append(header, "qtr")
	case table.Monthly:
		header = append(header, "month")
	}
	return append(header, f.columns...)
}

// Records returns the frame as text rows, header first. Missing values are
// empty strings.
func (f *Frame) Records() [][]string {
	records := make([][]string, 0, len(f.index)+1)
	records = append(records, f.Header())
	for i, d := range f.index {
		rec := []string{d.Format("2006-01-02"), strconv.Itoa(d.Year())}
		if p := f.Period(i); p > 0 {
			rec = append(rec, strconv.Itoa(p))
		}
		for _, v := range f.cells[i] {
			rec = append(rec, formatValue(v))
		}
		records = append(records, rec)
	}
	return records
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the frame as comma separated values.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(f.Records()); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// SheetName is the workbook sheet a frame is written to.
func (f *Frame) SheetName() string {
	return string(f.Freq)
}

// WriteXLSX writes each frame to its own sheet of one workbook.
func WriteXLSX(w io.Writer, frames ...*Frame) error {
	wb := excelize.NewFile()
	defer wb.Close()

	first := wb.GetSheetName(0)
	for i, f := range frames {
		sheet := f.SheetName()
		if i == 0 {
			if err := wb.SetSheetName(first, sheet); err != nil {
				return fmt.Errorf("naming sheet %s: %w", sheet, err)
			}
		} else if _, err := wb.NewSheet(sheet); err != nil {
			return fmt.Errorf("adding sheet %s: %w", sheet, err)
		}
		if err := f.writeSheet(wb, sheet); err != nil {
			return err
		}
	}

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (f *Frame) writeSheet(wb *excelize.File, sheet string) error {
	header := f.Header()
	if err := setRow(wb, sheet, 1, toCells(header)); err != nil {
		return err
	}
	for i, d := range f.index {
		row := []interface{}{d.Format("2006-01-02"), d.Year()}
		if p := f.Period(i); p > 0 {
			row = append(row, p)
		}
		for _, v := range f.cells[i] {
			if math.IsNaN(v) {
				row = append(row, nil)
			} else {
				row = append(row, v)
			}
		}
		if err := setRow(wb, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func setRow(wb *excelize.File, sheet string, n int, row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
	}
	return nil
}
