package metrics

import (
	"time"

	"github.com/torosent/llmload/internal/config"
)

// Report is the reproducible summary of one run. It is written once per run
// and never mutated after Aggregate returns it.
type Report struct {
	RunID          string          `json:"run_id,omitempty"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	Config         config.Snapshot `json:"config"`
	Summary        Summary         `json:"summary"`
	ErrorHistogram map[string]int  `json:"error_analysis,omitempty"`
}

// Summary holds the run totals. The latency and token blocks are nil unless
// at least one request succeeded, and their fields are flattened into the
// summary object when encoded.
type Summary struct {
	TotalRequests int     `json:"total_requests"`
	Successes     int     `json:"successes"`
	Failed        int     `json:"failed"`
	Concurrency   int     `json:"concurrency"`
	Jitter        float64 `json:"jitter"`
	SuccessRate   float64 `json:"success_rate"`
	TotalTime     float64 `json:"total_time"`
	Throughput    float64 `json:"throughput"`

	*LatencyStats
	*TokenStats
}

// LatencyStats are computed over successful requests only. All values are in
// seconds.
type LatencyStats struct {
	AvgLatency float64 `json:"avg_latency"`
	MinLatency float64 `json:"min_latency"`
	MaxLatency float64 `json:"max_latency"`
	P50Latency float64 `json:"p50_latency"`
	P90Latency float64 `json:"p90_latency"`
	P99Latency float64 `json:"p99_latency"`
}

// TokenStats describe generated output. TokensPerSecond is the approximation
// total_tokens / (avg_latency * concurrency); WallTokensPerSecond divides by
// the measured run time instead.
type TokenStats struct {
	TotalTokens         int     `json:"total_tokens"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	TokensPerSecond     float64 `json:"tokens_per_second"`
	WallTokensPerSecond float64 `json:"wall_tokens_per_second"`
}

// HasLatency reports whether the latency block is present.
func (s Summary) HasLatency() bool { return s.LatencyStats != nil }

// HasTokens reports whether the token block is present.
func (s Summary) HasTokens() bool { return s.TokenStats != nil }
