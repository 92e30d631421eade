// Package parallel splits index ranges across CPU cores for batch prediction
// and fold-parallel cross-validation.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Parallelize divides items into one contiguous range per CPU core
// and runs fn on each range (start, end) concurrently.
func Parallelize(items int, fn func(start, end int)) {
	_ = ParallelizeErr(items, func(start, end int) error {
		fn(start, end)
		return nil
	})
}

// ParallelizeWithThreshold runs fn sequentially when items does not exceed threshold.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}

// ParallelizeErr is Parallelize for range functions that can fail.
// It waits for every range and returns the error of the lowest failing range.
// A panic inside a worker is returned as an *errors.PanicError.
func ParallelizeErr(items int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	errs := make([]error, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(worker, s, e int) {
			defer wg.Done()
			errs[worker] = errors.SafeExecute("parallel.ParallelizeErr", func() error {
				return fn(s, e)
			})
		}(i, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ParallelizeErrWithThreshold runs fn sequentially when items does not exceed threshold.
func ParallelizeErrWithThreshold(items int, threshold int, fn func(start, end int) error) error {
	if items <= threshold {
		if items > 0 {
			return fn(0, items)
		}
		return nil
	}
	return ParallelizeErr(items, fn)
}
