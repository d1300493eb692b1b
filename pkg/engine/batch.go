package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/funvibe/funvar/pkg/typesystem"
)

// Call is one binding request in a batch.
type Call struct {
	Def  *Definition
	Args []typesystem.Type
}

// Result is the outcome of one batched call: exactly one of Sub and Err is
// set.
type Result struct {
	Sub *typesystem.Subst
	Err error
}

// BindBatch evaluates independent call sites concurrently. Results align
// with calls by index. Cancelling ctx stops issuing new work; calls that
// never started report the context error. Calls already running finish
// normally, they terminate in O(len(args)).
func (e *Engine) BindBatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))

	g := new(errgroup.Group)
	limit := e.workers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(calls); j++ {
				results[j] = Result{Err: err}
			}
			break
		}
		g.Go(func() error {
			sub, err := e.bindCall(ctx, call.Def, call.Args)
			results[i] = Result{Sub: sub, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
