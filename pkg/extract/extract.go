// Package extract runs a specification over the rows of a bulletin and
// returns labeled observations.
//
// The default definition is applied to the whole document and each scoped
// definition to the rows between its marker lines. Tables are resolved in
// document order, unit-only tables inherit the variable name of the table
// before them, and only tables whose label is required by the governing
// definition contribute observations. Extraction fails if a required label
// is never produced.
//
// A splitter is looked up only for tables that are kept. A discarded table
// whose row shape has no splitter is logged at debug level and does not fail
// the run with an unknown row shape error.
package extract

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coolbeans/kep/pkg/definition"
	"github.com/coolbeans/kep/pkg/metrics"
	"github.com/coolbeans/kep/pkg/scope"
	"github.com/coolbeans/kep/pkg/table"
)

// Table outcomes used in reports and metrics.
const (
	OutcomeKept       = "kept"
	OutcomeDiscarded  = "discarded"
	OutcomeUnresolved = "unresolved"
)

// TableReport describes what happened to one table.
type TableReport struct {
	Definition   string       `json:"definition"`
	Title        string       `json:"title"`
	Label        table.Label  `json:"label"`
	Status       table.Status `json:"status"`
	UnknownLines int          `json:"unknown_lines"`
	Width        int          `json:"width"`
	Carried      bool         `json:"carried,omitempty"`
	Outcome      string       `json:"outcome"`
	Observations int          `json:"observations"`
}

// Result is the output of one extraction.
type Result struct {
	Observations []table.Observation `json:"observations"`
	Tables       []TableReport       `json:"tables"`
}

// Labels returns the distinct labels in order of first appearance.
func (r *Result) Labels() []table.Label {
	seen := make(map[table.Label]bool)
	var labels []table.Label
	for _, o := range r.Observations {
		if !seen[o.Label] {
			seen[o.Label] = true
			labels = append(labels, o.Label)
		}
	}
	return labels
}

// Extractor applies one specification. It holds no state between calls and
// is safe for concurrent use.
type Extractor struct {
	spec      *definition.Specification
	splitters *table.SplitterRegistry
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSplitters replaces the default splitter registry.
func WithSplitters(r *table.SplitterRegistry) Option {
	return func(e *Extractor) {
		if r != nil {
			e.splitters = r
		}
	}
}

// WithMetrics records extraction metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// New creates an Extractor for spec.
func New(spec *definition.Specification, opts ...Option) *Extractor {
	e := &Extractor{
		spec:      spec,
		splitters: table.DefaultSplitters(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Specification returns the specification being applied.
func (e *Extractor) Specification() *definition.Specification {
	return e.spec
}

// Extract runs every definition over rows. On a *MissingLabelsError the
// result is returned along with the error so callers can inspect what was
// found; on any other error the result is nil.
func (e *Extractor) Extract(rows []table.Row) (*Result, error) {
	start := time.Now()
	res, err := e.extract(rows)
	e.metrics.ObserveExtraction(e.spec.Name, err, time.Since(start))
	return res, err
}

func (e *Extractor) extract(rows []table.Row) (*Result, error) {
	res := &Result{}
	units := e.spec.UnitMappings()

	var missing []table.Label
	for _, d := range e.spec.Definitions() {
		obs, reports, err := e.apply(d, rows, units)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", d.Title(), err)
		}
		res.Observations = append(res.Observations, obs...)
		res.Tables = append(res.Tables, reports...)
		missing = append(missing, CheckCoverage(d.Required(), obs)...)
	}

	counts := make(map[table.Frequency]int)
	for _, o := range res.Observations {
		counts[o.Freq]++
	}
	for _, freq := range table.Frequencies {
		e.metrics.AddObservations(e.spec.Name, string(freq), counts[freq])
	}

	e.logger.Info("extraction finished",
		zap.String("spec", e.spec.Name),
		zap.Int("rows", len(rows)),
		zap.Int("tables", len(res.Tables)),
		zap.Int("observations", len(res.Observations)),
		zap.Int("missing", len(missing)),
	)

	if len(missing) > 0 {
		e.metrics.AddMissingLabels(e.spec.Name, len(missing))
		return res, &MissingLabelsError{Labels: missing}
	}
	return res, nil
}

// apply runs one definition.
func (e *Extractor) apply(d *definition.Definition, rows []table.Row, units table.Mappings) ([]table.Observation, []TableReport, error) {
	log := e.logger.With(zap.String("definition", d.Title()))

	segment := rows
	if d.IsScoped() {
		var (
			m   scope.Marker
			err error
		)
		segment, m, err = scope.Segment(d.Markers, rows)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("scope resolved", zap.Stringer("marker", m), zap.Int("rows", len(segment)))
	}

	tables, err := table.Segment(segment)
	if err != nil {
		return nil, nil, err
	}

	varnames := d.Headers()
	required := make(map[table.Label]bool)
	for _, l := range d.Required() {
		required[l] = true
	}

	var (
		observations []table.Observation
		reports      = make([]TableReport, 0, len(tables))
		prev         table.Resolution
	)
	for i, t := range tables {
		r := table.Resolve(t, varnames, units)
		report := TableReport{
			Definition:   d.Title(),
			Title:        t.Title(),
			UnknownLines: r.UnknownLines(),
			Width:        t.Width(),
		}

		if i > 0 {
			if carried, ok := r.CarryVarname(prev); ok {
				log.Debug("variable name carried forward",
					zap.String("table", t.Title()), zap.String("varname", carried.Varname()))
				r = carried
				report.Carried = true
			}
		}
		prev = r
		report.Label = r.Label()

		if !r.Label().IsComplete() || !required[r.Label()] {
			report.Status = r.Status()
			report.Outcome = OutcomeDiscarded
			if !r.Label().IsComplete() {
				report.Outcome = OutcomeUnresolved
			}
			e.logDiscarded(log, d, r)
			e.metrics.ObserveTable(e.spec.Name, d.Title(), report.Outcome)
			reports = append(reports, report)
			continue
		}

		split, err := e.splitters.Lookup(d.Reader, t.Width())
		if err != nil {
			return nil, nil, fmt.Errorf("table %q (%s): %w", t.Title(), r.Label(), err)
		}
		r = r.Bind(split)

		obs, err := r.Observations()
		if err != nil {
			return nil, nil, fmt.Errorf("table %q (%s): %w", t.Title(), r.Label(), err)
		}

		report.Status = r.Status()
		report.Outcome = OutcomeKept
		report.Observations = len(obs)
		e.metrics.ObserveTable(e.spec.Name, d.Title(), report.Outcome)
		reports = append(reports, report)
		observations = append(observations, obs...)
	}

	return observations, reports, nil
}

func (e *Extractor) logDiscarded(log *zap.Logger, d *definition.Definition, r table.Resolution) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := []zap.Field{
		zap.String("table", r.Table().Title()),
		zap.String("varname", r.Varname()),
		zap.String("unit", r.Unit()),
		zap.Int("unknown_lines", r.UnknownLines()),
	}
	if _, err := e.splitters.Lookup(d.Reader, r.Table().Width()); err != nil {
		fields = append(fields, zap.NamedError("shape", err))
	}
	log.Debug("table discarded", fields...)
}
