package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/torosent/llmload/internal/runner"
)

// Exporter publishes live run metrics in the Prometheus exposition format.
// It uses a private registry so several exporters can coexist in one process.
type Exporter struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	tokens   prometheus.Counter
	latency  prometheus.Histogram
}

// NewExporter creates an Exporter with its collectors registered.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "llmload",
				Name:      "requests_total",
				Help:      "Completed requests by result and error key.",
			},
			[]string{"result", "error"},
		),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "llmload",
			Name:      "tokens_total",
			Help:      "Whitespace-separated words generated by successful requests.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "llmload",
			Name:      "request_duration_seconds",
			Help:      "Latency of successful requests.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	e.registry.MustRegister(e.requests, e.tokens, e.latency)
	return e
}

// Observe implements Observer.
func (e *Exporter) Observe(o runner.Outcome) {
	if o.Success() {
		e.requests.WithLabelValues("success", "").Inc()
		e.tokens.Add(float64(o.Tokens))
		e.latency.Observe(o.Latency.Seconds())
		return
	}
	e.requests.WithLabelValues("failure", ErrorKey(o)).Inc()
}

// Registry exposes the private registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Handler serves the registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled. The listener is
// bound before Serve returns so address errors surface immediately.
func (e *Exporter) Serve(ctx context.Context, addr string) (<-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return done, nil
}
