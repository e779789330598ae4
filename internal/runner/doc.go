// Package runner provides the load generation engine for llmload.
//
// A [Runner] dispatches a fixed number of requests across a bounded pool of
// worker goroutines:
//   - exactly Concurrency requests may execute at once
//   - request ids 0..TotalRequests-1 are assigned in submission order
//   - outcomes are delivered in completion order, not submission order
//   - the pool is fully drained before Run returns
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		Concurrency:   10,
//		TotalRequests: 100,
//		Jitter:        0.2,
//		Dispatcher:    myDispatcher,
//	})
//	result := r.Run(ctx, func(o runner.Outcome) { collector.Record(o) })
//
// # Dispatcher Interface
//
// The [Dispatcher] interface defines what a runner executes:
//
//	type Dispatcher interface {
//		Dispatch(ctx context.Context, requestID int) Outcome
//	}
//
// Dispatchers never return errors; every failure is captured in the
// [Outcome] as an [HTTPError] or a [TransportError]:
//
//	var httpErr *runner.HTTPError
//	if errors.As(outcome.Err, &httpErr) {
//		fmt.Printf("Status: %d, Body: %s\n", httpErr.StatusCode, httpErr.Body)
//	}
//
// # Submission Pacing
//
// Jitter inserts a uniform random pause in [0, Jitter) seconds between
// successive submissions. It throttles how fast work enters the pool, not
// how fast queued work executes. RatePerSecond optionally caps submissions
// with a token bucket.
//
// # Middleware
//
//   - [WithLogging]: log failed outcomes
package runner
