package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/kep/pkg/table"
)

// Release is one bulletin to extract.
type Release struct {
	Name string
	Rows []table.Row
}

// Batch extracts several releases using up to workers goroutines. Results
// are in input order. The first error stops scheduling further releases and
// is returned wrapped with the release name.
func (e *Extractor) Batch(ctx context.Context, releases []Release, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]*Result, len(releases))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rel := range releases {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Extract(rel.Rows)
			if err != nil {
				return fmt.Errorf("release %s: %w", rel.Name, err)
			}
			results[i] = res
			e.logger.Debug("release extracted", zap.String("release", rel.Name),
				zap.Int("observations", len(res.Observations)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
