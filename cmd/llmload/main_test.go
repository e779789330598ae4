package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/torosent/llmload/internal/runner"
)

func chatServer(t *testing.T, handler func(n int64, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(atomic.AddInt64(&calls, 1), w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

type cliResult struct {
	stdout string
	stderr string
	report map[string]interface{}
	err    error
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	res := cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
	if err == nil && strings.Contains(strings.Join(args, " "), "--json-output") {
		if decErr := json.Unmarshal(stdout.Bytes(), &res.report); decErr != nil {
			t.Fatalf("stdout is not a JSON report: %v\n%s", decErr, res.stdout)
		}
	}
	return res
}

func summaryOf(t *testing.T, report map[string]interface{}) map[string]interface{} {
	t.Helper()
	summary, ok := report["summary"].(map[string]interface{})
	if !ok {
		t.Fatalf("report has no summary: %v", report)
	}
	return summary
}

func TestRunAllSuccessful(t *testing.T) {
	srv := chatServer(t, func(_ int64, w http.ResponseWriter) {
		time.Sleep(5 * time.Millisecond)
		writeCompletion(w, "a b c")
	})
	out := filepath.Join(t.TempDir(), "report.json")

	res := runCLI(t, "--url", srv.URL, "-n", "10", "-c", "2", "--json-output", "--output", out)
	if res.err != nil {
		t.Fatalf("run() error = %v\nstderr: %s", res.err, res.stderr)
	}

	summary := summaryOf(t, res.report)
	if summary["success_rate"] != 1.0 {
		t.Errorf("success_rate = %v, want 1", summary["success_rate"])
	}
	if summary["total_tokens"] != float64(30) {
		t.Errorf("total_tokens = %v, want 30", summary["total_tokens"])
	}
	if summary["avg_tokens_per_request"] != 3.0 {
		t.Errorf("avg_tokens_per_request = %v, want 3", summary["avg_tokens_per_request"])
	}
	if _, ok := res.report["error_analysis"]; ok {
		t.Errorf("unexpected error_analysis: %v", res.report["error_analysis"])
	}
	if id, _ := res.report["run_id"].(string); len(id) != 26 {
		t.Errorf("run_id = %q, want a ULID", id)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !bytes.Contains(data, []byte(`"total_requests": 10`)) {
		t.Errorf("report file missing totals:\n%s", data)
	}
	if !strings.Contains(res.stderr, "Completed 10/10 requests") {
		t.Errorf("progress not reported on stderr:\n%s", res.stderr)
	}
}

func TestRunSingleServerError(t *testing.T) {
	srv := chatServer(t, func(n int64, w http.ResponseWriter) {
		if n == 3 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		writeCompletion(w, "ok")
	})

	res := runCLI(t, "--url", srv.URL, "-n", "5", "-c", "5", "--json-output", "--output", filepath.Join(t.TempDir(), "r.json"))
	if res.err != nil {
		t.Fatalf("request failures alone must not fail the run: %v", res.err)
	}
	summary := summaryOf(t, res.report)
	if summary["failed"] != float64(1) {
		t.Errorf("failed = %v, want 1", summary["failed"])
	}
	errs, _ := res.report["error_analysis"].(map[string]interface{})
	if len(errs) != 1 || errs["500"] != float64(1) {
		t.Errorf("error_analysis = %v, want {500: 1}", errs)
	}
}

func TestRunUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	res := runCLI(t, "--url", target, "-n", "3", "-c", "1", "--json-output", "--output", filepath.Join(t.TempDir(), "r.json"))
	if res.err != nil {
		t.Fatalf("run() error = %v", res.err)
	}
	summary := summaryOf(t, res.report)
	if summary["success_rate"] != 0.0 {
		t.Errorf("success_rate = %v, want 0", summary["success_rate"])
	}
	for _, key := range []string{"avg_latency", "p99_latency", "total_tokens"} {
		if _, ok := summary[key]; ok {
			t.Errorf("%s present without successes", key)
		}
	}
	errs, _ := res.report["error_analysis"].(map[string]interface{})
	total := 0.0
	for key, count := range errs {
		if _, err := fmt.Sscanf(key, "%d", new(int)); err == nil {
			t.Errorf("transport failure keyed by status code %q", key)
		}
		total += count.(float64)
	}
	if total != 3 {
		t.Errorf("error_analysis sums to %v, want 3 (%v)", total, errs)
	}
}

func TestRunZeroRequests(t *testing.T) {
	srv := chatServer(t, func(_ int64, w http.ResponseWriter) {
		t.Error("no request expected")
	})

	res := runCLI(t, "--url", srv.URL, "-n", "0", "--json-output", "--output", filepath.Join(t.TempDir(), "r.json"))
	if res.err != nil {
		t.Fatalf("run() error = %v", res.err)
	}
	summary := summaryOf(t, res.report)
	if summary["total_requests"] != float64(0) || summary["success_rate"] != 0.0 {
		t.Errorf("summary = %v", summary)
	}
	if _, ok := summary["avg_latency"]; ok {
		t.Error("avg_latency present for an empty run")
	}
	if _, ok := res.report["error_analysis"]; ok {
		t.Error("error_analysis present for an empty run")
	}
}

func TestRunTextReportAndYAMLFile(t *testing.T) {
	srv := chatServer(t, func(_ int64, w http.ResponseWriter) {
		writeCompletion(w, "one two")
	})
	out := filepath.Join(t.TempDir(), "reports", "run.yaml")

	res := runCLI(t, "--url", srv.URL, "-n", "4", "-c", "2", "--output", out)
	if res.err != nil {
		t.Fatalf("run() error = %v", res.err)
	}
	for _, want := range []string{"Starting load test: 4 requests, 2 concurrent workers", "===== Load Test Summary =====", "Total:           8"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !strings.Contains(string(data), "success_rate: 1") {
		t.Errorf("YAML report missing success_rate:\n%s", data)
	}
	if !strings.Contains(res.stderr, "report written") {
		t.Errorf("report path not logged:\n%s", res.stderr)
	}
}

func TestRunThresholdFailureStillWritesReport(t *testing.T) {
	srv := chatServer(t, func(_ int64, w http.ResponseWriter) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})
	out := filepath.Join(t.TempDir(), "r.json")

	res := runCLI(t, "--url", srv.URL, "-n", "2", "-c", "1", "--output", out,
		"--threshold", "failed:count == 0", "--threshold", "requests:count == 2")
	if !errors.Is(res.err, errThresholdsFailed) {
		t.Fatalf("run() error = %v, want errThresholdsFailed", res.err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("report not written before threshold failure: %v", err)
	}
	if !strings.Contains(res.stdout, "1 of 2 thresholds failed") {
		t.Errorf("threshold verdict missing:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "HTTP 503 Service Unavailable: 2") {
		t.Errorf("error section missing:\n%s", res.stdout)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	tests := map[string][]string{
		"concurrency": {"--url", "http://localhost:1", "-c", "0"},
		"jitter":      {"--url", "http://localhost:1", "--jitter", "1.5"},
		"threshold":   {"--url", "http://localhost:1", "--threshold", "latency:p42 < 1"},
		"flag":        {"--no-such-flag"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			res := runCLI(t, args...)
			if res.err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	if res := runCLI(t, "--help"); res.err != nil {
		t.Fatalf("--help returned %v", res.err)
	}
}

func TestRunSendsAPIKeyAndModel(t *testing.T) {
	var gotAuth, gotModel atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel.Store(body.Model)
		writeCompletion(w, "x")
	}))
	defer srv.Close()

	res := runCLI(t, "--url", srv.URL, "-n", "1", "--api-key", "sk-test", "--model", "tiny", "--output", filepath.Join(t.TempDir(), "r.json"))
	if res.err != nil {
		t.Fatalf("run() error = %v", res.err)
	}
	if gotAuth.Load() != "Bearer sk-test" {
		t.Errorf("Authorization = %v", gotAuth.Load())
	}
	if gotModel.Load() != "tiny" {
		t.Errorf("model = %v", gotModel.Load())
	}
	if strings.Contains(res.stdout, "sk-test") {
		t.Error("API key leaked into the report")
	}
}

func TestZapFailureLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zapFailureLogger{log: zap.New(core)}

	l.LogFailure(runner.Failed(7, runner.NewHTTPError(502, "bad gateway")))
	l.LogFailure(runner.Failed(8, &runner.TransportError{Message: "connection reset"}))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	first := entries[0].ContextMap()
	if first["request_id"] != int64(7) || first["status"] != int64(502) {
		t.Errorf("first entry fields = %v", first)
	}
	second := entries[1].ContextMap()
	if _, ok := second["status"]; ok {
		t.Errorf("transport failure should carry no status: %v", second)
	}
	if second["error"] != "connection reset" {
		t.Errorf("error field = %v", second["error"])
	}
}

func TestRunServesMetricsDuringRun(t *testing.T) {
	srv := chatServer(t, func(_ int64, w http.ResponseWriter) {
		writeCompletion(w, "a b")
	})

	res := runCLI(t, "--url", srv.URL, "-n", "3", "-c", "1", "--metrics-addr", "127.0.0.1:0",
		"--output", filepath.Join(t.TempDir(), "r.json"))
	if res.err != nil {
		t.Fatalf("run() error = %v", res.err)
	}
	if !strings.Contains(res.stderr, "serving prometheus metrics") {
		t.Errorf("metrics listener not logged:\n%s", res.stderr)
	}
	if strings.Contains(res.stderr, "metrics server failed") {
		t.Errorf("clean shutdown logged as a failure:\n%s", res.stderr)
	}
}

func TestLogServeResult(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	done := make(chan error, 1)
	done <- nil
	logServeResult(logger, done)
	if logs.Len() != 0 {
		t.Fatalf("clean stop logged %d entries", logs.Len())
	}

	done <- errors.New("accept tcp: use of closed network connection")
	logServeResult(logger, done)
	entries := logs.FilterMessage("metrics server failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["error"] != "accept tcp: use of closed network connection" {
		t.Errorf("error field = %v", entries[0].ContextMap()["error"])
	}
}
