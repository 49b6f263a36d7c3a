package team

import (
	"context"
	"sync"
)

// WorkerFunc processes one job of type T into a result of type U.
type WorkerFunc[T any, U any] func(ctx context.Context, job T) (U, error)

// Team is a generic worker pool.
// WorkerCount: number of concurrent workers
// Worker: the function to process each job
// OnError: optional, called for every failed or skipped job
type Team[T any, U any] struct {
	WorkerCount int
	Worker      WorkerFunc[T, U]
	OnError     func(job T, err error)
}

// Run feeds every job to the workers and returns the successful results in
// completion order. Once ctx is done the remaining jobs are reported to
// OnError with ctx.Err() and not started.
func (t *Team[T, U]) Run(ctx context.Context, jobs []T) []U {
	if len(jobs) == 0 {
		return nil
	}
	workers := max(t.WorkerCount, 1)
	workers = min(workers, len(jobs))

	jobChan := make(chan T, len(jobs))
	resultChan := make(chan U, len(jobs))
	var errMu sync.Mutex
	report := func(job T, err error) {
		if t.OnError == nil {
			return
		}
		errMu.Lock()
		defer errMu.Unlock()
		t.OnError(job, err)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				if err := ctx.Err(); err != nil {
					report(job, err)
					continue
				}
				res, err := t.Worker(ctx, job)
				if err != nil {
					report(job, err)
					continue
				}
				resultChan <- res
			}
		}()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []U
	for res := range resultChan {
		results = append(results, res)
	}
	return results
}
