package dpqa

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/atomarray/dpqa/internal/parallel"
)

// BatchResult pairs one sequence's compilation outcome with its index
// in the input slice.
type BatchResult struct {
	Index  int
	Result *Result
	Err    error
}

// CompileBatch compiles independent sequences concurrently on a worker
// pool. Each job carries its own solver state, so the only shared piece
// is the immutable Compiler itself. Results come back indexed like the
// input; a failed or cancelled job reports through its Err field and
// never hides the others.
func (c *Compiler) CompileBatch(ctx context.Context, seqs []*Sequence, workers int) []BatchResult {
	out := make([]BatchResult, len(seqs))
	if len(seqs) == 0 {
		return out
	}

	pool := parallel.NewPool(workers)
	defer pool.Shutdown()
	c.log.Info("compiling batch",
		zap.Int("sequences", len(seqs)),
		zap.Int("workers", pool.Workers()))

	var wg sync.WaitGroup
	for i, seq := range seqs {
		i, seq := i, seq
		wg.Add(1)
		err := pool.Submit(ctx, func() {
			defer wg.Done()
			res, err := c.Compile(ctx, seq)
			out[i] = BatchResult{Index: i, Result: res, Err: err}
		})
		if err != nil {
			wg.Done()
			out[i] = BatchResult{Index: i, Err: err}
		}
	}
	wg.Wait()
	return out
}
