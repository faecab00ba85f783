package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
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

	"mlxcli/internal/config"
)

// InstrumentationName names the tracer and meter of this module
const InstrumentationName = "mlxcli"

// Telemetry holds the tracer and meter providers of one process
type Telemetry struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Registry *prometheus.Registry

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsFile    string
	logger         *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics. Spans are exported as
// JSON to traceOut when cfg.Trace is set and dropped otherwise. Metrics are
// always collected into a private Prometheus registry, written to
// cfg.MetricsFile on Shutdown when one is configured.
func InitializeTelemetry(cfg config.TelemetryConfig, version string, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}
	if traceOut == nil {
		traceOut = os.Stderr
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
	)

	t := &Telemetry{
		metricsFile: cfg.MetricsFile,
		logger:      logger.With(slog.String("component", "telemetry")),
	}

	if cfg.Trace {
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(traceOut),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.tracerProvider.Tracer(InstrumentationName, trace.WithInstrumentationVersion(version))
		otel.SetTracerProvider(t.tracerProvider)
	} else {
		t.Tracer = noop.NewTracerProvider().Tracer(InstrumentationName)
	}

	t.Registry = prometheus.NewRegistry()
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(t.Registry),
		otelprom.WithNamespace(config.MetricsNamespace),
		otelprom.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.meterProvider.Meter(InstrumentationName, metric.WithInstrumentationVersion(version))

	t.logger.Debug("Telemetry initialized",
		slog.Bool("tracing_enabled", cfg.Trace),
		slog.String("metrics_file", cfg.MetricsFile))
	return t, nil
}

// WriteMetrics writes the current registry in the node_exporter textfile
// format. It is a no-op without a configured metrics file.
func (t *Telemetry) WriteMetrics() error {
	if t.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(t.metricsFile, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	t.logger.Debug("Metrics written", slog.String("path", t.metricsFile))
	return nil
}

// Shutdown writes the metrics file and flushes both providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if err := t.WriteMetrics(); err != nil {
		errs = append(errs, err)
	}
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// CombineMetrics are the instruments recorded by a combine run
type CombineMetrics struct {
	FilesDiscovered metric.Int64Counter
	FilesParsed     metric.Int64Counter
	FilesSkipped    metric.Int64Counter
	PointsParsed    metric.Int64Counter
	SheetsWritten   metric.Int64Counter
	ParseDuration   metric.Float64Histogram
	RunDuration     metric.Float64Histogram
	HeapAlloc       metric.Int64Gauge
}

// CreateCombineMetrics creates the combine run instruments on meter
func CreateCombineMetrics(meter metric.Meter) (*CombineMetrics, error) {
	var (
		m    CombineMetrics
		errs []error
		err  error
	)

	m.FilesDiscovered, err = meter.Int64Counter("files_discovered",
		metric.WithDescription("Input files matched by discovery"))
	errs = append(errs, err)

	m.FilesParsed, err = meter.Int64Counter("files_parsed",
		metric.WithDescription("Input files read and parsed"))
	errs = append(errs, err)

	m.FilesSkipped, err = meter.Int64Counter("files_skipped",
		metric.WithDescription("Input files skipped because they could not be read"))
	errs = append(errs, err)

	m.PointsParsed, err = meter.Int64Counter("points_parsed",
		metric.WithDescription("Data points emitted by the parser"))
	errs = append(errs, err)

	m.SheetsWritten, err = meter.Int64Counter("sheets_written",
		metric.WithDescription("Channel sheets written to the workbook"))
	errs = append(errs, err)

	m.ParseDuration, err = meter.Float64Histogram("file_parse_duration",
		metric.WithDescription("Time spent reading and parsing one file"),
		metric.WithUnit("s"))
	errs = append(errs, err)

	m.RunDuration, err = meter.Float64Histogram("run_duration",
		metric.WithDescription("Duration of a complete combine run"),
		metric.WithUnit("s"))
	errs = append(errs, err)

	m.HeapAlloc, err = meter.Int64Gauge("heap_alloc",
		metric.WithDescription("Heap bytes allocated at the end of the run"),
		metric.WithUnit("By"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	return &m, nil
}

// RecordRun records the run-level instruments
func (m *CombineMetrics) RecordRun(ctx context.Context, duration time.Duration, sheets int, status string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.SheetsWritten.Add(ctx, int64(sheets))
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.HeapAlloc.Record(ctx, int64(mem.HeapAlloc))
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
