// Package batch fans independent zorder calls out over a worker pool.
// It owns no algorithmic logic: every item is a separate invocation of the
// pure core functions, results are collected in input order.
package batch

import (
	"context"
	"fmt"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rmrschub/zcurve/zorder"
)

// ItemError reports which input made a batch fail.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf(`item %d: %v`, e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Map applies f to every item of in, running up to workers calls concurrently
// (NumCPU if workers <= 0). The output keeps the input order. The first
// failing item aborts the whole batch; the returned error is an *ItemError
// carrying that item's index.
func Map[I, O any](ctx context.Context, in []I, workers int, f func(I) (O, error)) ([]O, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]O, len(in))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range in {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o, err := f(in[i])
			if err != nil {
				return &ItemError{Index: i, Err: err}
			}
			out[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// InterlaceAll encodes all points with the same codec.
func InterlaceAll(ctx context.Context, codec zorder.Codec, points [][]*big.Int, workers int) ([]*big.Int, error) {
	return Map(ctx, points, workers, codec.Interlace)
}

// DeinterlaceAll decodes all codes with the same codec.
func DeinterlaceAll(ctx context.Context, codec zorder.Codec, codes []*big.Int, workers int) ([][]*big.Int, error) {
	return Map(ctx, codes, workers, codec.Deinterlace)
}
