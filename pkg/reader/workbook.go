package reader

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/coolbeans/kep/pkg/table"
)

// ReadWorkbook returns the rows of one sheet of an xlsx workbook. An empty
// sheet name selects the first sheet.
func ReadWorkbook(r io.Reader, sheet string) ([]table.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	rows := make([]table.Row, 0, len(cells))
	for _, c := range cells {
		if row, ok := makeRow(c); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
