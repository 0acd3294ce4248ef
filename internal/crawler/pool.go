package crawler

import (
	"context"
	"fmt"
	"sync"
)

// Result holds the outcome of one unit of work executed by RunPool. Exactly
// one of Value or Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// RunPool executes fn over every input using a fixed-size worker pool and
// returns one Result per input, index-aligned with the input slice.
// Completion order is not input order, but results[i] always belongs to
// inputs[i]. Panics inside fn are captured as errors rather than crossing
// the pool boundary. An empty input yields an empty result slice with no
// goroutines started.
func RunPool[In, Out any](ctx context.Context, workers int, inputs []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	results := make([]Result[Out], len(inputs))
	if len(inputs) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = runOne(ctx, inputs[i], fn)
			}
		}()
	}

	for i := range inputs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results
}

func runOne[In, Out any](ctx context.Context, in In, fn func(context.Context, In) (Out, error)) (res Result[Out]) {
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("unit of work panicked: %v", r)
		}
	}()
	res.Value, res.Err = fn(ctx, in)
	return res
}
