package table

// State of the segmenter.
type State int

const (
	StateInit State = iota
	StateHeaders
	StateData
)

func (s State) String() string {
	switch s {
	case StateHeaders:
		return "collecting_headers"
	case StateData:
		return "collecting_data"
	default:
		return "init"
	}
}

// Table is a run of header rows followed by a run of data rows.
type Table struct {
	headers []Row
	data    []Row
}

// NewTable builds a table from header and data rows.
func NewTable(headers, data []Row) *Table {
	return &Table{
		headers: append([]Row(nil), headers...),
		data:    append([]Row(nil), data...),
	}
}

// Headers returns the header rows.
func (t *Table) Headers() []Row {
	return append([]Row(nil), t.headers...)
}

// DataRows returns the data rows.
func (t *Table) DataRows() []Row {
	return append([]Row(nil), t.data...)
}

// Width is the largest data row length, year cell included. It selects a
// splitter when a definition does not name one.
func (t *Table) Width() int {
	width := 0
	for _, r := range t.data {
		if r.Len() > width {
			width = r.Len()
		}
	}
	return width
}

// Title returns the first non-empty header text.
func (t *Table) Title() string {
	for _, h := range t.headers {
		if name := h.Name(); name != "" {
			return name
		}
	}
	return ""
}

// Segment partitions rows into tables. A header row seen after data rows
// closes the current table. Header rows left without data at the end are
// dropped. A year-led row with a non-numeric cell stops segmentation with a
// *MalformedNumberError.
func Segment(rows []Row) ([]*Table, error) {
	var (
		tables  []*Table
		headers []Row
		data    []Row
		state   = StateInit
	)

	for _, row := range rows {
		kind, err := Classify(row)
		if err != nil {
			return nil, err
		}

		switch {
		case kind == DataRow:
			data = append(data, row)
			state = StateData
		case state == StateData:
			if len(headers) > 0 {
				tables = append(tables, NewTable(headers, data))
			}
			headers = []Row{row}
			data = nil
			state = StateHeaders
		default:
			headers = append(headers, row)
			state = StateHeaders
		}
	}

	if len(headers) > 0 && len(data) > 0 {
		tables = append(tables, NewTable(headers, data))
	}
	return tables, nil
}
