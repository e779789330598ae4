package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/llmload/internal/config"
	"github.com/torosent/llmload/internal/runner"
)

// Histogram bounds in microseconds: 1µs up to the 60s request timeout.
const (
	histLowest  = 1
	histHighest = 60_000_000
	histSigFigs = 3
)

// Aggregate reduces outcomes into a Report. It is pure: the same inputs always
// produce the same Report. RunID and StartedAt are left for the caller.
func Aggregate(outcomes []runner.Outcome, snapshot config.Snapshot, elapsed time.Duration) Report {
	report := Report{Config: snapshot}
	summary := Summary{
		TotalRequests: len(outcomes),
		Concurrency:   snapshot.MaxWorkers,
		Jitter:        snapshot.Jitter,
		TotalTime:     elapsed.Seconds(),
	}

	var (
		sumLatency  time.Duration
		minLatency  time.Duration
		maxLatency  time.Duration
		totalTokens int
		hist        *hdrhistogram.Histogram
	)
	errs := make(map[string]int)

	for _, o := range outcomes {
		if !o.Success() {
			summary.Failed++
			errs[ErrorKey(o)]++
			continue
		}
		if summary.Successes == 0 {
			hist = hdrhistogram.New(histLowest, histHighest, histSigFigs)
			minLatency = o.Latency
		}
		summary.Successes++
		sumLatency += o.Latency
		if o.Latency < minLatency {
			minLatency = o.Latency
		}
		if o.Latency > maxLatency {
			maxLatency = o.Latency
		}
		totalTokens += o.Tokens
		_ = hist.RecordValue(clampMicros(o.Latency))
	}

	if summary.TotalRequests > 0 {
		summary.SuccessRate = float64(summary.Successes) / float64(summary.TotalRequests)
	}
	if elapsed > 0 {
		summary.Throughput = float64(summary.TotalRequests) / elapsed.Seconds()
	}

	if summary.Successes > 0 {
		avg := sumLatency.Seconds() / float64(summary.Successes)
		summary.LatencyStats = &LatencyStats{
			AvgLatency: avg,
			MinLatency: minLatency.Seconds(),
			MaxLatency: maxLatency.Seconds(),
			P50Latency: microsToSeconds(hist.ValueAtQuantile(50)),
			P90Latency: microsToSeconds(hist.ValueAtQuantile(90)),
			P99Latency: microsToSeconds(hist.ValueAtQuantile(99)),
		}

		tokens := &TokenStats{
			TotalTokens:         totalTokens,
			AvgTokensPerRequest: float64(totalTokens) / float64(summary.Successes),
		}
		if denom := avg * float64(summary.Concurrency); denom > 0 {
			tokens.TokensPerSecond = float64(totalTokens) / denom
		}
		if elapsed > 0 {
			tokens.WallTokensPerSecond = float64(totalTokens) / elapsed.Seconds()
		}
		summary.TokenStats = tokens
	}

	if summary.Failed > 0 {
		report.ErrorHistogram = errs
	}
	report.Summary = summary
	return report
}

// ErrorKey classifies a failed outcome for the error histogram: the HTTP
// status code when there is one, otherwise the transport error text,
// otherwise "unknown".
func ErrorKey(o runner.Outcome) string {
	var httpErr *runner.HTTPError
	if errors.As(o.Err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode)
	}
	var transportErr *runner.TransportError
	if errors.As(o.Err, &transportErr) {
		if transportErr.Message != "" {
			return transportErr.Message
		}
		return "unknown"
	}
	if o.Err != nil && o.Err.Error() != "" {
		return o.Err.Error()
	}
	return "unknown"
}

func clampMicros(d time.Duration) int64 {
	us := d.Microseconds()
	if us < histLowest {
		return histLowest
	}
	if us > histHighest {
		return histHighest
	}
	return us
}

func microsToSeconds(us int64) float64 {
	return (time.Duration(us) * time.Microsecond).Seconds()
}
