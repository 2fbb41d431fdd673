package infrastructure

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RunResources records the process footprint of a finished run.
type RunResources struct {
	heapInUse  metric.Int64Gauge
	totalAlloc metric.Int64Gauge
	gcCount    metric.Int64Gauge
	runSeconds metric.Float64Gauge
}

// RunStats is one runtime snapshot.
type RunStats struct {
	HeapInUse  int64
	TotalAlloc int64
	GCCount    uint32
	Elapsed    time.Duration
}

// NewRunResources registers the runtime gauges on meter.
func NewRunResources(meter metric.Meter) (*RunResources, error) {
	heapInUse, err := meter.Int64Gauge(
		"report_heap_inuse_bytes",
		metric.WithDescription("Heap bytes in use when the run finished"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"report_allocated_bytes",
		metric.WithDescription("Cumulative bytes allocated during the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"report_gc_cycles",
		metric.WithDescription("Completed GC cycles"),
	)
	if err != nil {
		return nil, err
	}

	runSeconds, err := meter.Float64Gauge(
		"report_run_duration_seconds",
		metric.WithDescription("Wall time of the whole run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunResources{
		heapInUse:  heapInUse,
		totalAlloc: totalAlloc,
		gcCount:    gcCount,
		runSeconds: runSeconds,
	}, nil
}

// Collect takes a runtime snapshot and records it.
func (r *RunResources) Collect(ctx context.Context, startTime time.Time) RunStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := RunStats{
		HeapInUse:  int64(memStats.HeapInuse),
		TotalAlloc: int64(memStats.TotalAlloc),
		GCCount:    memStats.NumGC,
		Elapsed:    time.Since(startTime),
	}

	if r != nil {
		r.heapInUse.Record(ctx, stats.HeapInUse)
		r.totalAlloc.Record(ctx, stats.TotalAlloc)
		r.gcCount.Record(ctx, int64(stats.GCCount))
		r.runSeconds.Record(ctx, stats.Elapsed.Seconds())
	}

	return stats
}

// LogValue renders the snapshot as a log group.
func (s RunStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("heap_inuse_bytes", s.HeapInUse),
		slog.Int64("allocated_bytes", s.TotalAlloc),
		slog.Int("gc_cycles", int(s.GCCount)),
		slog.Duration("elapsed", s.Elapsed),
	)
}
