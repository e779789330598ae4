package metrics

import (
	"sync"

	"github.com/torosent/llmload/internal/runner"
)

// progressInterval is how many completions pass between progress reports.
const progressInterval = 10

// Progress is a point-in-time view of a running test.
type Progress struct {
	Completed   int
	Total       int
	SuccessRate float64
}

// ProgressFunc receives progress reports. It is a side channel only and never
// influences the collected outcomes.
type ProgressFunc func(Progress)

// Observer is notified of every recorded outcome, e.g. a live metrics
// exporter.
type Observer interface {
	Observe(runner.Outcome)
}

// Collector accumulates outcomes in completion order in a thread-safe manner.
type Collector struct {
	mu        sync.Mutex
	total     int
	outcomes  []runner.Outcome
	successes int

	progress  ProgressFunc
	observers []Observer
}

// NewCollector returns a Collector for a run of total requests.
func NewCollector(total int) *Collector {
	if total < 0 {
		total = 0
	}
	return &Collector{
		total:    total,
		outcomes: make([]runner.Outcome, 0, total),
	}
}

// OnProgress registers fn to receive a report every ten completions and on the
// final completion.
func (c *Collector) OnProgress(fn ProgressFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = fn
}

// AddObserver registers o to see every recorded outcome.
func (c *Collector) AddObserver(o Observer) {
	if o == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Record appends outcome to the completion-ordered list.
func (c *Collector) Record(outcome runner.Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, outcome)
	if outcome.Success() {
		c.successes++
	}
	completed := len(c.outcomes)
	rate := float64(c.successes) / float64(completed)
	fn := c.progress
	observers := c.observers
	c.mu.Unlock()

	for _, o := range observers {
		o.Observe(outcome)
	}
	if fn != nil && (completed%progressInterval == 0 || completed == c.total) {
		fn(Progress{Completed: completed, Total: c.total, SuccessRate: rate})
	}
}

// Outcomes returns a copy of the recorded outcomes in completion order.
func (c *Collector) Outcomes() []runner.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]runner.Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}

// Counts returns the number of recorded outcomes and how many succeeded.
func (c *Collector) Counts() (completed, successes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes), c.successes
}
