package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/torosent/llmload/internal/config"
	"github.com/torosent/llmload/internal/metrics"
)

// promptPreviewChars is how much of the prompt the run header shows.
const promptPreviewChars = 50

// PrintRunHeader announces a run before any request is sent.
func PrintRunHeader(w io.Writer, cfg config.Config) {
	fmt.Fprintf(w, "Starting load test: %d requests, %d concurrent workers, jitter=%g\n",
		cfg.Total, cfg.Concurrency, cfg.Jitter)
	if cfg.Rate > 0 {
		fmt.Fprintf(w, "Rate limit:        %d req/s\n", cfg.Rate)
	}
	fmt.Fprintf(w, "Target:            %s (model %s)\n", cfg.URL, cfg.Model)
	fmt.Fprintf(w, "Prompt:            '%s'\n", previewPrompt(cfg.Prompt))
}

func previewPrompt(prompt string) string {
	if utf8.RuneCountInString(prompt) <= promptPreviewChars {
		return prompt
	}
	return string([]rune(prompt)[:promptPreviewChars]) + "..."
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report metrics.Report) {
	s := report.Summary
	fmt.Fprintln(w, "\n===== Load Test Summary =====")
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", report.RunID)
	}
	fmt.Fprintf(w, "Total Requests:    %d\n", s.TotalRequests)
	fmt.Fprintf(w, "Concurrency:       %d\n", s.Concurrency)
	fmt.Fprintf(w, "Successful:        %d\n", s.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", s.Failed)
	fmt.Fprintf(w, "Success Rate:      %.2f%%\n", s.SuccessRate*100)
	fmt.Fprintf(w, "Total Time:        %.2fs\n", s.TotalTime)
	fmt.Fprintf(w, "Throughput:        %.1f req/s\n", s.Throughput)

	if s.HasLatency() {
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Avg:             %.3fs\n", s.AvgLatency)
		fmt.Fprintf(w, "  Min:             %.3fs\n", s.MinLatency)
		fmt.Fprintf(w, "  Max:             %.3fs\n", s.MaxLatency)
		fmt.Fprintf(w, "  P50:             %.3fs\n", s.P50Latency)
		fmt.Fprintf(w, "  P90:             %.3fs\n", s.P90Latency)
		fmt.Fprintf(w, "  P99:             %.3fs\n", s.P99Latency)
	}

	if s.HasTokens() {
		fmt.Fprintln(w, "\nTokens:")
		fmt.Fprintf(w, "  Total:           %d\n", s.TotalTokens)
		fmt.Fprintf(w, "  Avg/Request:     %.1f\n", s.AvgTokensPerRequest)
		fmt.Fprintf(w, "  Tokens/sec:      %.1f (approx: total / (avg latency x concurrency))\n", s.TokensPerSecond)
		fmt.Fprintf(w, "  Wall Tokens/sec: %.1f\n", s.WallTokensPerSecond)
	}

	if rows := metrics.FlattenErrorHistogram(report.ErrorHistogram); len(rows) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, row := range rows {
			fmt.Fprintf(w, "  %s: %d\n", oneLine(metrics.ErrorLabel(row.Key)), row.Count)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
