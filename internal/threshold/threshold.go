// Package threshold evaluates pass/fail assertions over a run report, for use
// as a regression gate.
package threshold

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/torosent/llmload/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "latency", "success", "tokens"
	Aggregate string  // e.g., "p99", "avg", "rate", "count"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// errNoSuccesses marks metrics that only exist when a request succeeded.
var errNoSuccesses = errors.New("no successful requests")

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// metricAggregates lists the aggregates each metric supports.
var metricAggregates = map[string][]string{
	"latency":  {"avg", "min", "max", "p50", "p90", "p99"},
	"success":  {"rate"},
	"failed":   {"count", "rate"},
	"tokens":   {"total", "avg", "rate"},
	"requests": {"count", "rate"},
}

var validOperators = []string{"<", "<=", ">", ">=", "=="}

// Evaluator evaluates thresholds against a report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the report.
func (e *Evaluator) Evaluate(report metrics.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, report))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, report metrics.Report) Result {
	actual, err := extractMetricValue(t, report.Summary)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: %v", t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "latency:p99 < 2000"    (latency in ms: avg, min, max, p50, p90, p99)
// - "success:rate >= 0.99"  (success rate as decimal)
// - "failed:count < 5"      (failure count, or rate as decimal)
// - "tokens:rate > 50"      (approximate tokens/sec, total, or avg per request)
// - "requests:rate > 2"     (throughput in requests/sec, or count)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'latency:p99 < 2000')", s)
	}

	metric, aggregate, operator, valueStr := matches[1], matches[2], matches[3], matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	aggregates, ok := metricAggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(supportedMetrics(), ", "))
	}
	if !contains(aggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates, ", "))
	}
	if !contains(validOperators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: %s)", operator, strings.Join(validOperators, ", "))
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, reporting every invalid one.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

func supportedMetrics() []string {
	names := make([]string, 0, len(metricAggregates))
	for name := range metricAggregates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, s metrics.Summary) (float64, error) {
	switch t.Metric {
	case "latency":
		return extractLatencyMetric(t.Aggregate, s)
	case "success":
		return s.SuccessRate, nil
	case "failed":
		return extractFailureMetric(t.Aggregate, s), nil
	case "tokens":
		return extractTokenMetric(t.Aggregate, s)
	case "requests":
		return extractRequestMetric(t.Aggregate, s), nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

// extractLatencyMetric returns milliseconds.
func extractLatencyMetric(aggregate string, s metrics.Summary) (float64, error) {
	if !s.HasLatency() {
		return 0, errNoSuccesses
	}
	var seconds float64
	switch aggregate {
	case "avg":
		seconds = s.AvgLatency
	case "min":
		seconds = s.MinLatency
	case "max":
		seconds = s.MaxLatency
	case "p50":
		seconds = s.P50Latency
	case "p90":
		seconds = s.P90Latency
	case "p99":
		seconds = s.P99Latency
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for latency", aggregate)
	}
	return seconds * 1000, nil
}

func extractFailureMetric(aggregate string, s metrics.Summary) float64 {
	if aggregate == "count" {
		return float64(s.Failed)
	}
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.TotalRequests)
}

func extractTokenMetric(aggregate string, s metrics.Summary) (float64, error) {
	if !s.HasTokens() {
		return 0, errNoSuccesses
	}
	switch aggregate {
	case "total":
		return float64(s.TotalTokens), nil
	case "avg":
		return s.AvgTokensPerRequest, nil
	case "rate":
		return s.TokensPerSecond, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for tokens", aggregate)
	}
}

func extractRequestMetric(aggregate string, s metrics.Summary) float64 {
	if aggregate == "count" {
		return float64(s.TotalRequests)
	}
	return s.Throughput
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
