package ingest

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds RunMany when the caller passes zero.
const DefaultConcurrency = 4

// RunMany runs independent units concurrently and returns every result in
// input order, with the failures joined into the error.
func (p *Pipeline) RunMany(ctx context.Context, units []Unit, opts Options, concurrency int) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]Result, len(units))
	errs := make([]error, len(units))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, unit := range units {
		g.Go(func() error {
			results[i], errs[i] = p.Run(ctx, unit, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}
