package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/kep/pkg/definition"
	"github.com/coolbeans/kep/pkg/extract"
	"github.com/coolbeans/kep/pkg/frame"
	"github.com/coolbeans/kep/pkg/metrics"
	"github.com/coolbeans/kep/pkg/reader"
	"github.com/coolbeans/kep/pkg/table"
)

func (a *app) extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract observations from bulletin files",
		Long: `Extract labeled observations from one or more bulletin files.

Each file is read as delimited text, or as a workbook when it ends in .xlsx.
Several files are extracted concurrently; when two files report the same
observation the file listed first wins.

Examples:
  # Summary of what was found
  kep extract tab.txt

  # Write dfa.csv, dfq.csv and dfm.csv into ./out
  kep extract tab.txt --format csv -o out

  # One workbook with a sheet per frequency
  kep extract 2017-01.txt 2017-02.txt --format xlsx -o kep.xlsx

  # Every observation as JSON, with the table report
  kep extract tab.txt --format json --report`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("encoding") {
				a.cfg.Reader.Encoding, _ = cmd.Flags().GetString("encoding")
			}
			if cmd.Flags().Changed("delimiter") {
				a.cfg.Reader.Delimiter, _ = cmd.Flags().GetString("delimiter")
			}
			if cmd.Flags().Changed("sheet") {
				a.cfg.Reader.Sheet, _ = cmd.Flags().GetString("sheet")
			}
			if cmd.Flags().Changed("workers") {
				a.cfg.Workers, _ = cmd.Flags().GetInt("workers")
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			formatStr, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			report, _ := cmd.Flags().GetBool("report")
			allowMissing, _ := cmd.Flags().GetBool("allow-missing")

			spec, err := a.specification()
			if err != nil {
				return err
			}

			results, err := a.runExtract(cmd.Context(), spec, args, nil)
			if err != nil {
				var missing *extract.MissingLabelsError
				if !allowMissing || !errors.As(err, &missing) {
					return err
				}
				a.logger.Warn("continuing with missing labels", zap.Error(err))
			}

			obs := merge(results)
			return writeResults(cmd.OutOrStdout(), formatStr, output, obs, results, report)
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format (text, json, csv, xlsx)")
	cmd.Flags().StringP("output", "o", "", "Output directory (csv) or file (json, xlsx)")
	cmd.Flags().String("encoding", "", "Input text encoding (e.g. utf-8, windows-1251)")
	cmd.Flags().String("delimiter", "", "Input cell delimiter")
	cmd.Flags().String("sheet", "", "Workbook sheet to read (default: first sheet)")
	cmd.Flags().IntP("workers", "w", 0, "Files extracted concurrently")
	cmd.Flags().Bool("report", false, "Include the per-table report")
	cmd.Flags().Bool("allow-missing", false, "Write output even when required labels are missing")

	return cmd
}

// runExtract reads and extracts every file. m may be nil. A missing-labels
// error is returned together with all results so callers may still use them.
func (a *app) runExtract(ctx context.Context, spec *definition.Specification, files []string, m *metrics.Metrics) ([]*extract.Result, error) {
	log := a.logger.With(zap.String("run", uuid.NewString()))
	opts := a.readerOptions()
	releases := make([]extract.Release, 0, len(files))
	for _, path := range files {
		rows, err := reader.ReadFile(path, opts)
		if err != nil {
			return nil, err
		}
		log.Debug("read bulletin", zap.String("file", path), zap.Int("rows", len(rows)))
		releases = append(releases, extract.Release{Name: filepath.Base(path), Rows: rows})
	}

	ex := extract.New(spec, extract.WithLogger(log), extract.WithMetrics(m))

	if len(releases) == 1 {
		res, err := ex.Extract(releases[0].Rows)
		if res == nil {
			return nil, err
		}
		return []*extract.Result{res}, err
	}
	return a.batchAllowingMissing(ctx, ex, releases)
}

// batchAllowingMissing extracts releases concurrently. When a release lacks
// required labels the batch is cancelled, so releases are then extracted
// one by one to keep every partial result.
func (a *app) batchAllowingMissing(ctx context.Context, ex *extract.Extractor, releases []extract.Release) ([]*extract.Result, error) {
	results, err := ex.Batch(ctx, releases, a.cfg.Workers)
	if err == nil {
		return results, nil
	}
	var missing *extract.MissingLabelsError
	if !errors.As(err, &missing) {
		return nil, err
	}

	results = make([]*extract.Result, 0, len(releases))
	var firstErr error
	for _, rel := range releases {
		res, err := ex.Extract(rel.Rows)
		if res == nil {
			return nil, fmt.Errorf("release %s: %w", rel.Name, err)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release %s: %w", rel.Name, err)
		}
		results = append(results, res)
	}
	return results, firstErr
}

// merge concatenates observations in release order and drops duplicates,
// keeping the first.
func merge(results []*extract.Result) []table.Observation {
	var all []table.Observation
	for _, res := range results {
		all = append(all, res.Observations...)
	}
	unique, _ := frame.Dedupe(all)
	return unique
}

func writeResults(stdout io.Writer, formatStr, output string, obs []table.Observation, results []*extract.Result, report bool) error {
	switch formatStr {
	case "text":
		return writeSummary(stdout, obs, results, report)

	case "json":
		payload := struct {
			Observations []table.Observation    `json:"observations"`
			Tables       []extract.TableReport `json:"tables,omitempty"`
		}{Observations: obs}
		if report {
			for _, res := range results {
				payload.Tables = append(payload.Tables, res.Tables...)
			}
		}
		w, closeFn, err := openOutput(stdout, output)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			closeFn()
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return closeFn()

	case "csv":
		if output == "" {
			return fmt.Errorf("--output directory is required for csv format")
		}
		if err := os.MkdirAll(output, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		for _, f := range frame.BuildAll(obs) {
			path := filepath.Join(output, "df"+f.SheetName()+".csv")
			if err := writeFile(path, f.WriteCSV); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Wrote %s (%d rows, %d columns)\n", path, f.Len(), len(f.Columns()))
		}
		return nil

	case "xlsx":
		if output == "" {
			return fmt.Errorf("--output file is required for xlsx format")
		}
		frames := frame.BuildAll(obs)
		if err := writeFile(output, func(w io.Writer) error {
			return frame.WriteXLSX(w, frames...)
		}); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s (%d sheets)\n", output, len(frames))
		return nil

	default:
		return fmt.Errorf("unknown format: %s (use text, json, csv or xlsx)", formatStr)
	}
}

func writeSummary(w io.Writer, obs []table.Observation, results []*extract.Result, report bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	counts := make(map[string]map[table.Frequency]int)
	var labels []string
	for _, o := range obs {
		key := o.Label.String()
		if counts[key] == nil {
			counts[key] = make(map[table.Frequency]int)
			labels = append(labels, key)
		}
		counts[key][o.Freq]++
	}

	fmt.Fprintf(w, "%d observations, %d labels\n\n", len(obs), len(labels))
	fmt.Fprintln(tw, "LABEL\tANNUAL\tQUARTERLY\tMONTHLY")
	for _, l := range labels {
		c := counts[l]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", l, c[table.Annual], c[table.Quarterly], c[table.Monthly])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !report {
		return nil
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEFINITION\tLABEL\tWIDTH\tOUTCOME\tOBS\tTITLE")
	for _, res := range results {
		for _, r := range res.Tables {
			label := r.Label.String()
			if r.Carried {
				label += " (carried)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
				shorten(r.Definition, 24), label, r.Width, r.Outcome, r.Observations, shorten(r.Title, 48))
		}
	}
	return tw.Flush()
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}

// openOutput returns stdout when path is empty.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
