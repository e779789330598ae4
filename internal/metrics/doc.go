// Package metrics collects request outcomes and reduces them into a report.
//
// # Collector
//
// A [Collector] is the sink of a run. It keeps outcomes in completion order
// and emits a [Progress] every ten completions and on the final one:
//
//	collector := metrics.NewCollector(cfg.Total)
//	collector.OnProgress(func(p metrics.Progress) { ... })
//	runner.Run(ctx, collector.Record)
//
// # Aggregation
//
// [Aggregate] is a pure reduction of the outcome list into a [Report]:
//   - success rate, total time and throughput
//   - avg/min/max and p50/p90/p99 latency of successful requests
//   - token totals and tokens per second
//   - an error histogram keyed by [ErrorKey]
//
// The latency and token blocks are nil when no request succeeded, and the
// error histogram is nil when none failed.
//
// # Live Metrics
//
// An [Exporter] registered with [Collector.AddObserver] mirrors outcomes into
// Prometheus counters and a latency histogram served from a private registry.
package metrics
