package extract

import (
	"errors"
	"strings"

	"github.com/coolbeans/kep/pkg/table"
)

// ErrMissingRequiredLabels is returned when extraction finished but some
// required series were never produced.
var ErrMissingRequiredLabels = errors.New("missing required labels")

// MissingLabelsError lists every required label that was not produced.
type MissingLabelsError struct {
	Labels []table.Label
}

func (e *MissingLabelsError) Error() string {
	names := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		names[i] = l.String()
	}
	return "missing required labels: " + strings.Join(names, ", ")
}

func (e *MissingLabelsError) Unwrap() error {
	return ErrMissingRequiredLabels
}

// CheckCoverage returns the labels in required that no observation carries,
// in the order they are required.
func CheckCoverage(required []table.Label, observations []table.Observation) []table.Label {
	produced := make(map[table.Label]bool)
	for _, o := range observations {
		produced[o.Label] = true
	}
	var missing []table.Label
	seen := make(map[table.Label]bool)
	for _, l := range required {
		if !produced[l] && !seen[l] {
			seen[l] = true
			missing = append(missing, l)
		}
	}
	return missing
}
