package table

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedNumber is returned when a cell is neither empty, a placeholder
// nor a number.
var ErrMalformedNumber = errors.New("malformed number")

// MalformedNumberError describes the offending cell.
type MalformedNumberError struct {
	Cell string
	// Row holds the first cell of the row the value was read from, if known.
	Row string
}

func (e *MalformedNumberError) Error() string {
	if e.Row != "" {
		return fmt.Sprintf("malformed number %q in row %q", e.Cell, e.Row)
	}
	return fmt.Sprintf("malformed number %q", e.Cell)
}

func (e *MalformedNumberError) Unwrap() error {
	return ErrMalformedNumber
}

var (
	numberPattern = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)$`)
	// "542.01)" is 542.0 followed by footnote "1)"
	footnotePattern = regexp.MustCompile(`^([-+]?\d+\.?\d*)\d\)$`)
)

// placeholders stand for "no value" in bulletin tables.
var placeholders = map[string]bool{
	"":    true,
	"-":   true,
	"—":   true,
	"–":   true,
	"…":   true,
	"...": true,
}

// ParseNumber converts a cell to a number. ok is false for empty cells and
// placeholders. A decimal comma and one trailing separator are accepted.
// Cells that are present but not numeric return a *MalformedNumberError.
func ParseNumber(cell string) (value float64, ok bool, err error) {
	text := strings.TrimSpace(cell)
	if placeholders[text] {
		return 0, false, nil
	}
	text = strings.ReplaceAll(text, ",", ".")
	// "97,1," ends with a stray separator
	if len(text) > 1 && strings.HasSuffix(text, ".") {
		text = text[:len(text)-1]
	}

	if v, ok := parseDecimal(text); ok {
		return v, true, nil
	}
	// "542.0 5881)": keep the leading value
	if fields := strings.Fields(text); len(fields) > 1 {
		if v, ok := parseDecimal(fields[0]); ok {
			return v, true, nil
		}
		text = fields[0]
	}
	if m := footnotePattern.FindStringSubmatch(text); m != nil {
		if v, ok := parseDecimal(m[1]); ok {
			return v, true, nil
		}
	}
	return 0, false, &MalformedNumberError{Cell: cell}
}

// IsNumeric reports whether cell is empty, a placeholder or a parseable number.
func IsNumeric(cell string) bool {
	_, _, err := ParseNumber(cell)
	return err == nil
}

func parseDecimal(text string) (float64, bool) {
	if !numberPattern.MatchString(text) {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
