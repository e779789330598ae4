package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/torosent/llmload/internal/auth"
	"github.com/torosent/llmload/internal/config"
	"github.com/torosent/llmload/internal/httpclient"
	"github.com/torosent/llmload/internal/metrics"
	"github.com/torosent/llmload/internal/output"
	"github.com/torosent/llmload/internal/runner"
	"github.com/torosent/llmload/internal/threshold"
	"github.com/torosent/llmload/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// errThresholdsFailed is returned after the report is written when at least
// one threshold did not hold.
var errThresholdsFailed = errors.New("thresholds failed")

type zapFailureLogger struct {
	log *zap.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger := newLogger(stderr)
	defer func() { _ = logger.Sync() }()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	builder, err := httpclient.NewRequestBuilder(cfg, auth.FromAPIKey(cfg.APIKey))
	if err != nil {
		return err
	}
	builder.WithTracePropagation(tp.ShouldPropagate())

	tracer := tp.Tracer()
	if !tp.Enabled() {
		tracer = nil
	}
	client := httpclient.NewClient(cfg.Timeout, cfg.Concurrency)

	var dispatcher runner.Dispatcher = httpclient.NewChatRequester(client, builder, cfg.ContentPath, tracer)
	if cfg.LogErrors {
		dispatcher = runner.WithLogging(dispatcher, zapFailureLogger{log: logger})
	}

	collector := metrics.NewCollector(cfg.Total)

	// Progress and the header go to stderr when stdout carries JSON.
	console := stdout
	if cfg.JSONOutput {
		console = stderr
	}
	collector.OnProgress(output.ProgressPrinter(console))

	if cfg.MetricsAddr != "" {
		exporter := metrics.NewExporter()
		serveCtx, stopServe := context.WithCancel(ctx)
		serveDone, err := exporter.Serve(serveCtx, cfg.MetricsAddr)
		if err != nil {
			stopServe()
			return fmt.Errorf("serve metrics on %s: %w", cfg.MetricsAddr, err)
		}
		defer func() {
			stopServe()
			logServeResult(logger, serveDone)
		}()
		collector.AddObserver(exporter)
		logger.Info("serving prometheus metrics", zap.String("addr", cfg.MetricsAddr))
	}

	output.PrintRunHeader(console, *cfg)

	r := runner.New(runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalRequests: cfg.Total,
		Jitter:        cfg.Jitter,
		RatePerSecond: cfg.Rate,
		RandomSeed:    cfg.Seed,
		Dispatcher:    dispatcher,
	})

	startedAt := time.Now().UTC()
	result := r.Run(ctx, collector.Record)
	if ctx.Err() != nil {
		logger.Warn("run interrupted, reporting partial results",
			zap.Int64("completed", result.Total), zap.Int("requested", cfg.Total))
	}

	report := metrics.Aggregate(collector.Outcomes(), cfg.Snapshot(), result.Duration)
	report.RunID = ulid.Make().String()
	report.StartedAt = &startedAt

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, report)
	}

	if cfg.Output != "" {
		if err := output.WriteReportFile(cfg.Output, report); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", cfg.Output), zap.String("run_id", report.RunID))
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(report)
	output.PrintThresholdResults(console, results)
	if !threshold.AllPassed(results) {
		return errThresholdsFailed
	}
	return nil
}

// newLogger builds a console logger on w. Writes are serialised because
// failure logging happens from every worker.
func newLogger(w io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(w)), zap.InfoLevel)
	return zap.New(core)
}

// logServeResult waits for the metrics server to stop and logs any error it
// stopped with.
func logServeResult(logger *zap.Logger, done <-chan error) {
	if err := <-done; err != nil {
		logger.Warn("metrics server failed", zap.Error(err))
	}
}

func (l zapFailureLogger) LogFailure(o runner.Outcome) {
	fields := []zap.Field{zap.Int("request_id", o.RequestID)}
	var httpErr *runner.HTTPError
	if errors.As(o.Err, &httpErr) {
		fields = append(fields, zap.Int("status", httpErr.StatusCode))
	}
	fields = append(fields, zap.Error(o.Err))
	l.log.Warn("request failed", fields...)
}
