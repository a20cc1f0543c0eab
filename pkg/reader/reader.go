// Package reader turns bulletin files into rows of trimmed text cells.
//
// Text exports are decoded to UTF-8 (a byte order mark, when present, selects
// the encoding), normalized to NFC and split on a delimiter. Workbooks are
// read sheet by sheet. In both cases rows whose first cell is empty are
// dropped: they hold column titles such as "Год Year" or quarter numerals
// that carry no label and would otherwise count as unrecognised headers.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/coolbeans/kep/pkg/table"
)

// Options control how text is decoded and split.
type Options struct {
	// Encoding is a WHATWG encoding label such as "utf-8" or
	// "windows-1251". Empty means UTF-8.
	Encoding string
	// Delimiter separates cells. Zero means tab.
	Delimiter rune
	// Sheet selects a workbook sheet. Empty means the first sheet.
	Sheet string
}

// DefaultOptions reads tab-separated UTF-8.
func DefaultOptions() Options {
	return Options{Encoding: "utf-8", Delimiter: '\t'}
}

func (o Options) delimiter() string {
	if o.Delimiter == 0 {
		return "\t"
	}
	return string(o.Delimiter)
}

// Lookup returns the encoding registered under a WHATWG label.
func Lookup(label string) (encoding.Encoding, error) {
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}

// Read decodes r and returns its rows.
func Read(r io.Reader, opts Options) ([]table.Row, error) {
	enc, err := Lookup(opts.Encoding)
	if err != nil {
		return nil, err
	}

	decoded := transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(enc.NewDecoder()),
		norm.NFC,
	))

	sep := opts.delimiter()
	var rows []table.Row
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if row, ok := makeRow(strings.Split(line, sep)); ok {
			rows = append(rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return rows, nil
}

// ReadString reads rows from text already in memory.
func ReadString(text string, opts Options) ([]table.Row, error) {
	return Read(strings.NewReader(text), opts)
}

// ReadFile reads a text export, or a workbook when the file name ends in
// .xlsx.
func ReadFile(path string, opts Options) ([]table.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var rows []table.Row
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = ReadWorkbook(f, opts.Sheet)
	} else {
		rows, err = Read(f, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// makeRow trims every cell and keeps empty ones: a partial year padded to
// the table width must keep that width to select its splitter. A row whose
// first cell is empty is rejected.
func makeRow(cells []string) (table.Row, bool) {
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	if len(cells) == 0 || cells[0] == "" {
		return table.Row{}, false
	}
	return table.NewRow(cells...), true
}
