package runner

import (
	"context"
	"sync"
	"time"
)

// Result captures execution summary.
type Result struct {
	Total    int64
	Failures int64
	Duration time.Duration
}

// Runner dispatches a fixed number of requests across a bounded worker pool.
type Runner struct {
	opt   Options
	pacer *submissionPacer
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, pacer: newSubmissionPacer(opt)}
}

// Run submits TotalRequests tasks and hands every outcome to sink in
// completion order. sink is only ever called from the goroutine that
// called Run. Run returns after all submitted tasks have finished.
//
// Cancelling ctx stops further submissions; tasks already queued are still
// dispatched with the cancelled context so the pool drains.
func (r *Runner) Run(ctx context.Context, sink func(Outcome)) Result {
	start := time.Now()
	total := r.opt.TotalRequests

	// The queue holds every id so submission never waits on a busy pool.
	tasks := make(chan int, total)

	go func() {
		defer close(tasks)
		for id := 0; id < total; id++ {
			if ctx.Err() != nil {
				return
			}
			if err := r.pacer.Admit(ctx); err != nil {
				return
			}
			tasks <- id
			if id == total-1 {
				return
			}
			if err := r.pacer.Pause(ctx); err != nil {
				return
			}
		}
	}()

	completions := make(chan Outcome, r.opt.Concurrency)

	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for i := 0; i < r.opt.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for id := range tasks {
				completions <- r.dispatch(ctx, id)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(completions)
	}()

	var res Result
	for outcome := range completions {
		res.Total++
		if !outcome.Success() {
			res.Failures++
		}
		if sink != nil {
			sink(outcome)
		}
	}
	res.Duration = time.Since(start)
	return res
}

func (r *Runner) dispatch(ctx context.Context, id int) Outcome {
	if r.opt.Dispatcher == nil {
		return Failed(id, &TransportError{Message: "dispatcher is not configured"})
	}
	outcome := r.opt.Dispatcher.Dispatch(ctx, id)
	outcome.RequestID = id
	return outcome
}
