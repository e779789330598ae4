package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/torosent/llmload/internal/config"
	"github.com/torosent/llmload/internal/metrics"
	"github.com/torosent/llmload/internal/runner"
)

func mixedReport() metrics.Report {
	outcomes := []runner.Outcome{
		runner.Succeeded(0, 400*time.Millisecond, 3),
		runner.Succeeded(1, 600*time.Millisecond, 5),
		runner.Failed(2, runner.NewHTTPError(500, "boom")),
		runner.Failed(3, runner.NewHTTPError(500, "boom")),
		runner.Failed(4, &runner.TransportError{Message: "connection refused"}),
	}
	cfg := config.Default()
	cfg.Total = 5
	cfg.Concurrency = 2
	report := metrics.Aggregate(outcomes, cfg.Snapshot(), 2*time.Second)
	report.RunID = "01HZZZZZZZZZZZZZZZZZZZZZZZ"
	return report
}

func TestPrintRunHeaderTruncatesPrompt(t *testing.T) {
	cfg := config.Default()
	cfg.Prompt = strings.Repeat("p", 60)

	var buf bytes.Buffer
	PrintRunHeader(&buf, cfg)
	out := buf.String()

	if !strings.Contains(out, "100 requests, 10 concurrent workers, jitter=0") {
		t.Errorf("header missing run shape:\n%s", out)
	}
	if !strings.Contains(out, "'"+strings.Repeat("p", 50)+"...'") {
		t.Errorf("prompt not truncated to 50 characters:\n%s", out)
	}

	buf.Reset()
	cfg.Prompt = "short"
	PrintRunHeader(&buf, cfg)
	if !strings.Contains(buf.String(), "'short'") || strings.Contains(buf.String(), "short...") {
		t.Errorf("short prompt should be printed as-is:\n%s", buf.String())
	}
}

func TestPrintReportMixed(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, mixedReport())
	out := buf.String()

	for _, want := range []string{
		"Total Requests:    5",
		"Failed:            3",
		"Success Rate:      40.00%",
		"Throughput:        2.5 req/s",
		"Avg:             0.500s",
		"Total:           8",
		"approx",
		"HTTP 500 Internal Server Error: 2",
		"connection refused: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "HTTP 500") > strings.Index(out, "connection refused") {
		t.Errorf("errors not sorted by count:\n%s", out)
	}
}

func TestPrintReportWithoutSuccesses(t *testing.T) {
	outcomes := []runner.Outcome{runner.Failed(0, &runner.TransportError{Message: "timeout"})}
	report := metrics.Aggregate(outcomes, config.Default().Snapshot(), time.Second)

	var buf bytes.Buffer
	PrintReport(&buf, report)
	out := buf.String()
	if strings.Contains(out, "Latency:") || strings.Contains(out, "Tokens:") {
		t.Errorf("latency/token sections printed without successes:\n%s", out)
	}
	if !strings.Contains(out, "timeout: 1") {
		t.Errorf("error histogram missing:\n%s", out)
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, mixedReport()); err != nil {
		t.Fatalf("PrintJSONReport() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	summary, ok := decoded["summary"].(map[string]interface{})
	if !ok {
		t.Fatalf("summary missing: %v", decoded)
	}
	for _, key := range []string{"total_requests", "success_rate", "avg_latency", "p99_latency", "total_tokens", "tokens_per_second", "throughput"} {
		if _, ok := summary[key]; !ok {
			t.Errorf("summary missing %q", key)
		}
	}
	errs, ok := decoded["error_analysis"].(map[string]interface{})
	if !ok || errs["500"] != float64(2) {
		t.Errorf("error_analysis = %v", decoded["error_analysis"])
	}
	cfg, ok := decoded["config"].(map[string]interface{})
	if !ok || cfg["max_workers"] != float64(2) {
		t.Errorf("config = %v", decoded["config"])
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	fn := ProgressPrinter(&buf)
	fn(metrics.Progress{Completed: 10, Total: 40, SuccessRate: 0.9})

	if got := buf.String(); got != "Completed 10/40 requests | success rate: 90.0%\n" {
		t.Errorf("ProgressPrinter() wrote %q", got)
	}
}
