package runner

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// submissionPacer gates the submitter between enqueues. It is only used by
// the single submitter goroutine, so it needs no locking.
type submissionPacer struct {
	limiter *rate.Limiter
	jitter  float64
	sample  func() float64
	sleep   func(ctx context.Context, d time.Duration) error
}

func newSubmissionPacer(opt Options) *submissionPacer {
	sampler := opt.JitterSampler
	if sampler == nil {
		seed := opt.RandomSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		sampler = rand.New(rand.NewSource(seed)).Float64
	}
	var limiter *rate.Limiter
	if opt.RatePerSecond > 0 {
		limiter = opt.LimiterFactory(opt.RatePerSecond)
	}
	return &submissionPacer{
		limiter: limiter,
		jitter:  opt.Jitter,
		sample:  sampler,
		sleep:   opt.Sleep,
	}
}

// Admit blocks until the rate cap allows the next submission.
func (p *submissionPacer) Admit(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Pause sleeps for a uniform random duration in [0, jitter) seconds.
// A zero jitter never sleeps.
func (p *submissionPacer) Pause(ctx context.Context) error {
	delay := p.nextDelay()
	if delay <= 0 {
		return nil
	}
	return p.sleep(ctx, delay)
}

func (p *submissionPacer) nextDelay() time.Duration {
	if p.jitter <= 0 {
		return 0
	}
	value := p.sample()
	if value < 0 {
		value = 0
	}
	if value >= 1 {
		value = 0
	}
	return time.Duration(p.jitter * value * float64(time.Second))
}
