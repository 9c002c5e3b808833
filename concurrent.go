package vexpr

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Block is one independent evaluation unit for ConcurrentEvaluate:
// variable blocks in VarNames order plus the output block they fill.
type Block struct {
	Vars   [][]byte
	Output []byte
	Nitems int32
}

// ConcurrentEvaluate fans independent blocks out over at most workers
// goroutines against this one compiled expression. It is a convenience
// over the thread-safety contract of Evaluate: callers remain free to
// schedule blocks themselves. The first failing block cancels the rest;
// blocks already running finish their current call.
func (e *Expr) ConcurrentEvaluate(ctx context.Context, blocks []Block, params EvalParams, workers int) error {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, b := range blocks {
		b := b
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.Evaluate(b.Vars, b.Output, b.Nitems, params)
		})
	}
	return g.Wait()
}
