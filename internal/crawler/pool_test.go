package crawler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPool_ResultsAreIndexStable(t *testing.T) {
	t.Parallel()

	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}
	results := RunPool(context.Background(), 8, inputs, func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n * 2), nil
	})

	require.Len(t, results, len(inputs))
	for i, res := range results {
		require.NoError(t, res.Err)
		require.Equal(t, strconv.Itoa(i*2), res.Value)
	}
}

func TestRunPool_CapturesErrorsPerItem(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	inputs := []int{1, 2, 3}
	results := RunPool(context.Background(), 2, inputs, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})

	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, boom)
	require.NoError(t, results[2].Err)
}

func TestRunPool_CapturesPanics(t *testing.T) {
	t.Parallel()

	results := RunPool(context.Background(), 2, []int{1, 2}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			panic("bad tuple")
		}
		return n, nil
	})

	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.Contains(t, results[1].Err.Error(), "bad tuple")
}

func TestRunPool_EmptyInput(t *testing.T) {
	t.Parallel()

	results := RunPool(context.Background(), 4, nil, func(_ context.Context, n int) (int, error) {
		t.Fatal("fn must not run for empty input")
		return 0, nil
	})
	require.Empty(t, results)
}

func TestRunPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 3
	var (
		mu      sync.Mutex
		current int32
		peak    int32
	)
	gate := make(chan struct{})
	inputs := make([]int, 12)

	done := make(chan []Result[int])
	go func() {
		done <- RunPool(context.Background(), workers, inputs, func(_ context.Context, n int) (int, error) {
			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()
			<-gate
			mu.Lock()
			current--
			mu.Unlock()
			return n, nil
		})
	}()

	close(gate)
	results := <-done
	require.Len(t, results, len(inputs))
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(workers))
}
