package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// chunkRunner runs tasks in consecutive chunks of at most size. Chunk k+1 starts only
// after every task of chunk k has returned, with delay in between.
type chunkRunner struct {
	size  int
	delay time.Duration
	sleep sleepFunc
}

func newChunkRunner(size int, delay time.Duration, sleep sleepFunc) chunkRunner {
	if size < 1 {
		size = 1
	}
	if sleep == nil {
		sleep = sleepContext
	}
	return chunkRunner{size: size, delay: delay, sleep: sleep}
}

// run calls task for indexes [0, n). done receives each result in completion order
// and is never called concurrently. A task failure or panic never cancels its
// chunk-mates. When ctx ends between chunks, run returns the first index that was
// not started together with the context error.
func (r chunkRunner) run(
	ctx context.Context,
	n int,
	task func(ctx context.Context, i int) error,
	done func(i int, err error),
) (int, error) {
	var mu sync.Mutex

	for start := 0; start < n; start += r.size {
		if start > 0 {
			if err := r.sleep(ctx, r.delay); err != nil {
				return start, err
			}
		}
		if err := ctx.Err(); err != nil {
			return start, err
		}

		end := min(start+r.size, n)

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				err := safeCall(ctx, i, task)
				mu.Lock()
				done(i, err)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	return n, nil
}

// ErrTaskPanicked wraps a recovered panic value.
type ErrTaskPanicked struct {
	Value any
}

func (e *ErrTaskPanicked) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func safeCall(ctx context.Context, i int, task func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &ErrTaskPanicked{Value: recovered}
		}
	}()
	return task(ctx, i)
}
