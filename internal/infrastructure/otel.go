package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Dokarii/TercerMomento/internal/config"
)

// InstrumentationName scopes the tracer and meter of the report pipeline.
const InstrumentationName = "github.com/Dokarii/TercerMomento"

// Telemetry holds the trace and metric providers of one run. Providers are
// local to the run and never installed globally.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *promclient.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *ReportMetrics
	Resources      *RunResources
	Logger         *slog.Logger

	metricsFile string
	traceOut    io.Closer
}

// ReportMetrics are the pipeline instruments.
type ReportMetrics struct {
	RowsLoaded       metric.Int64Counter
	ArtifactsWritten metric.Int64Counter
	StepDuration     metric.Float64Histogram
	StepFailures     metric.Int64Counter
	AlertRows        metric.Int64Counter
}

// InitializeOTel builds the providers described by cfg. The trace exporter
// is chosen by cfg.TraceExporter: "stdout", "file" or "none".
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		exporter sdktrace.SpanExporter
		closer   io.Closer
		err      error
	)

	switch strings.ToLower(cfg.TraceExporter) {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "file":
		var f *os.File
		f, err = openTraceFile(cfg.TraceFile)
		if err == nil {
			closer = f
			exporter, err = stdouttrace.New(stdouttrace.WithWriter(f))
		}
	case "none", "":
		// Spans are still created so trace IDs exist, they are just not exported.
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tel, err := NewTelemetry(cfg, logger, exporter)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	tel.traceOut = closer

	logger.Info("Telemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_file", cfg.MetricsFile != ""))

	return tel, nil
}

// NewTelemetry wires providers around an explicit span exporter, which may be
// nil. Metrics are always collected into a private Prometheus registry.
func NewTelemetry(cfg config.TelemetryConfig, logger *slog.Logger, exporter sdktrace.SpanExporter) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	registry := promclient.NewRegistry()
	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)

	tel := &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Registry:       registry,
		Tracer:         tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion)),
		Meter:          mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion)),
		Logger:         logger,
		metricsFile:    cfg.MetricsFile,
	}

	tel.Metrics, err = CreateReportMetrics(tel.Meter)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create report metrics: %w", err)
	}

	tel.Resources, err = NewRunResources(tel.Meter)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	return tel, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = config.DefaultServiceName
	}
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// CreateReportMetrics registers the pipeline instruments on meter.
func CreateReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"report_rows_loaded",
		metric.WithDescription("Readings loaded from the input file"),
	)
	if err != nil {
		return nil, err
	}

	artifacts, err := meter.Int64Counter(
		"report_artifacts_written",
		metric.WithDescription("Chart, report and export files written"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"report_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepFailures, err := meter.Int64Counter(
		"report_step_failures",
		metric.WithDescription("Pipeline steps that ended in error"),
	)
	if err != nil {
		return nil, err
	}

	alertRows, err := meter.Int64Counter(
		"report_alert_rows",
		metric.WithDescription("Readings above the PM2.5 alert threshold"),
	)
	if err != nil {
		return nil, err
	}

	return &ReportMetrics{
		RowsLoaded:       rowsLoaded,
		ArtifactsWritten: artifacts,
		StepDuration:     stepDuration,
		StepFailures:     stepFailures,
		AlertRows:        alertRows,
	}, nil
}

// RecordStep records the duration and outcome of one pipeline step.
func (m *ReportMetrics) RecordStep(ctx context.Context, step string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	))
	if err != nil {
		m.StepFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
	}
}

// RecordArtifact counts one written file of the given kind.
func (m *ReportMetrics) RecordArtifact(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordRows counts readings loaded from the input file.
func (m *ReportMetrics) RecordRows(ctx context.Context, source string, n int) {
	if m == nil {
		return
	}
	m.RowsLoaded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", filepath.Base(source))))
}

// RecordAlerts counts readings above the PM2.5 threshold, per station.
func (m *ReportMetrics) RecordAlerts(ctx context.Context, station string, n int) {
	if m == nil {
		return
	}
	m.AlertRows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("station", station)))
}

// StartSpan starts a span on the run tracer. A nil Telemetry yields a
// no-op span and leaves ctx unchanged.
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil || t.Tracer == nil {
		return ctx, noop.Span{}
	}
	return t.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// ReportMetrics returns the instruments, nil when telemetry is off.
func (t *Telemetry) ReportMetrics() *ReportMetrics {
	if t == nil {
		return nil
	}
	return t.Metrics
}

// WriteMetricsFile dumps the registry in Prometheus text format when a
// metrics file is configured.
func (t *Telemetry) WriteMetricsFile() error {
	if t == nil || t.metricsFile == "" {
		return nil
	}
	if dir := filepath.Dir(t.metricsFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory %s: %w", dir, err)
		}
	}
	if err := promclient.WriteToTextfile(t.metricsFile, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", t.metricsFile, err)
	}
	return nil
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		t.traceOut = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	t.Logger.Debug("Telemetry shutdown complete")
	return nil
}

func openTraceFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("trace file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the OpenTelemetry trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}
