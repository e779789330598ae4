package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the fixed per-request timeout.
	DefaultTimeout = 60 * time.Second

	DefaultURL         = "http://localhost:8080/v1/chat/completions"
	DefaultModel       = "Qwen3-1.7B-Q8_0"
	DefaultPrompt      = "Explain the basic principles of quantum mechanics"
	DefaultTotal       = 100
	DefaultConcurrency = 10
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 128
	DefaultOutput      = "stress_test_report.json"
	DefaultContentPath = "choices.0.message.content"

	// APIKeyEnv supplies the API key when neither a flag nor the config file does.
	APIKeyEnv = "LLMLOAD_API_KEY"
)

// Config describes one load test run. It is built once by the Loader and
// passed by value afterwards.
type Config struct {
	URL         string            `mapstructure:"url"`
	Model       string            `mapstructure:"model"`
	Prompt      string            `mapstructure:"prompt"`
	Total       int               `mapstructure:"requests"`
	Concurrency int               `mapstructure:"concurrency"`
	Jitter      float64           `mapstructure:"jitter"`
	Timeout     time.Duration     `mapstructure:"-"`
	Temperature float64           `mapstructure:"temperature"`
	MaxTokens   int               `mapstructure:"max_tokens"`
	Rate        int               `mapstructure:"rate"`
	Seed        int64             `mapstructure:"seed"`
	APIKey      string            `mapstructure:"api_key"`
	Headers     map[string]string `mapstructure:"headers"`
	ContentPath string            `mapstructure:"content_path"`
	Output      string            `mapstructure:"output"`
	JSONOutput  bool              `mapstructure:"json_output"`
	LogErrors   bool              `mapstructure:"log_errors"`
	Thresholds  []string          `mapstructure:"thresholds"`
	MetricsAddr string            `mapstructure:"metrics_addr"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	ConfigFile  string            `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	NoPropagate bool    `mapstructure:"no_propagate"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ShouldPropagate reports whether W3C trace headers should be injected.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Enabled() && !t.NoPropagate
}

// Default returns a Config populated with the tool defaults.
func Default() Config {
	return Config{
		URL:         DefaultURL,
		Model:       DefaultModel,
		Prompt:      DefaultPrompt,
		Total:       DefaultTotal,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Headers:     map[string]string{},
		ContentPath: DefaultContentPath,
		Output:      DefaultOutput,
		Tracing:     TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// Snapshot is the reproducibility record of a Config embedded in reports.
// Secrets are never part of it.
type Snapshot struct {
	URL            string  `json:"url"`
	Prompt         string  `json:"prompt"`
	Model          string  `json:"model"`
	TotalRequests  int     `json:"total_requests"`
	MaxWorkers     int     `json:"max_workers"`
	Jitter         float64 `json:"jitter"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds float64 `json:"timeout_s"`
	RatePerSecond  int     `json:"rate,omitempty"`
}

// Snapshot returns the reproducibility record for c.
func (c Config) Snapshot() Snapshot {
	return Snapshot{
		URL:            c.URL,
		Prompt:         c.Prompt,
		Model:          c.Model,
		TotalRequests:  c.Total,
		MaxWorkers:     c.Concurrency,
		Jitter:         c.Jitter,
		Temperature:    c.Temperature,
		MaxTokens:      c.MaxTokens,
		TimeoutSeconds: c.Timeout.Seconds(),
		RatePerSecond:  c.Rate,
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.URL)
	if target == "" {
		issues = append(issues, "url is required (use --help for usage information)")
	} else if u, err := url.Parse(target); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		issues = append(issues, fmt.Sprintf("url must be an absolute http(s) URL: %q", target))
	}

	if c.Concurrency > 500 {
		fmt.Fprintf(os.Stderr, "WARNING: High concurrency configured (%d workers). Ensure you have authorization to test the target system.\n", c.Concurrency)
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Total < 0 {
		issues = append(issues, "requests must be >= 0")
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		issues = append(issues, "jitter must be between 0.0 and 1.0")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.Temperature < 0 {
		issues = append(issues, "temperature must be >= 0")
	}
	if c.MaxTokens < 1 {
		issues = append(issues, "max tokens must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if strings.TrimSpace(c.ContentPath) == "" {
		issues = append(issues, "content path cannot be empty")
	}
	for key := range c.Headers {
		if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "\r\n") {
			issues = append(issues, fmt.Sprintf("invalid header key %q", key))
		}
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol must be grpc or http, got %q", t.Protocol))
	}
	return issues
}
