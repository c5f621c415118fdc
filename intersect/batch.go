package intersect

import (
	"cmp"
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pair is one independent intersection request.
type Pair[T cmp.Ordered] struct {
	A, B []T
	// N is the declared length. Zero means min(len(A), len(B)) + 1.
	N int
}

// Result holds the masks of one Pair.
type Result struct {
	MaskA Mask
	MaskB Mask
}

// Batch runs DivideAndConquer for every pair with at most workers running at
// once. workers <= 0 uses GOMAXPROCS. Results keep the order of pairs. The
// first failing pair cancels the remaining ones and its error is returned.
func Batch[T cmp.Ordered](ctx context.Context, pairs []Pair[T], workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := pairs[idx]
			n := p.N
			if n == 0 {
				n = min(len(p.A), len(p.B)) + 1
			}
			ma, mb, err := DivideAndConquer(p.A, p.B, n)
			if err != nil {
				return err
			}
			results[idx] = Result{MaskA: ma, MaskB: mb}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
