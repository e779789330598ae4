package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Dispatcher performs exactly one request for the given id and reports its
// outcome. Implementations must capture every failure in the Outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, requestID int) Outcome
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, requestID int) Outcome

func (f DispatcherFunc) Dispatch(ctx context.Context, requestID int) Outcome {
	return f(ctx, requestID)
}

// Options configure the Runner.
type Options struct {
	Concurrency   int        // number of worker goroutines
	TotalRequests int        // number of requests to dispatch
	Jitter        float64    // max random pause between submissions, in seconds
	RatePerSecond int        // optional submission cap (0 means unlimited)
	RandomSeed    int64      // seeds the jitter source (0 means time based)
	Dispatcher    Dispatcher // request executor (required)

	// Optional injection points for tests.
	JitterSampler  func() float64                              // uniform sample in [0,1)
	Sleep          func(ctx context.Context, d time.Duration) error
	LimiterFactory func(rps int) *rate.Limiter
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.Jitter < 0 {
		o.Jitter = 0
	}
	if o.Jitter > 1 {
		o.Jitter = 1
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
