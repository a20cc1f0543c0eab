package frame

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrCheckpointFailed is returned when known values are absent from a frame.
var ErrCheckpointFailed = errors.New("checkpoint failed")

// Checkpoint is a value known to be published for a label and date.
type Checkpoint struct {
	Label string    `json:"label" yaml:"label"`
	Date  time.Time `json:"date" yaml:"date"`
	Value float64   `json:"value" yaml:"value"`
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("%s %s = %g", c.Label, c.Date.Format("2006-01-02"), c.Value)
}

// CheckpointError lists every checkpoint that did not match.
type CheckpointError struct {
	Missing []Checkpoint
}

func (e *CheckpointError) Error() string {
	items := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		items[i] = c.String()
	}
	return fmt.Sprintf("%d checkpoint(s) not found: %s", len(e.Missing), strings.Join(items, "; "))
}

func (e *CheckpointError) Unwrap() error {
	return ErrCheckpointFailed
}

// Has reports whether the frame holds c's value.
func (f *Frame) Has(c Checkpoint) bool {
	v, ok := f.Value(c.Label, c.Date)
	if !ok {
		return false
	}
	return math.Abs(v-c.Value) <= 1e-9*math.Max(1, math.Abs(c.Value))
}

// Require checks every checkpoint and reports all misses at once.
func (f *Frame) Require(points ...Checkpoint) error {
	var missing []Checkpoint
	for _, c := range points {
		if !f.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &CheckpointError{Missing: missing}
	}
	return nil
}
