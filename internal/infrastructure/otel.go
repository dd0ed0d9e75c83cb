package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"psconvert/internal/config"
	"psconvert/pkg/contracts"
)

// InstrumentationName names the tracer and meter of this module.
const InstrumentationName = "psconvert"

// Telemetry holds the OpenTelemetry providers and the Prometheus registry
// the meter reports into.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter
	Logger         *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics from cfg. Spans are written
// to traceOut (stderr when nil) by the stdout exporter. Disabled signals get
// no-op implementations so callers never check for nil.
func InitializeTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if traceOut == nil {
		traceOut = os.Stderr
	}

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{
		Registry: prometheus.NewRegistry(),
		Tracer:   tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Meter:    metricnoop.NewMeterProvider().Meter(InstrumentationName),
		Logger:   logger,
	}

	if cfg.EnableTracing && cfg.TraceExporter != "none" {
		if err := t.initializeTracing(cfg, res, traceOut); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := t.initializeMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Debug("telemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.Bool("tracing_enabled", t.TracerProvider != nil),
		slog.Bool("metrics_enabled", t.MeterProvider != nil))
	return t, nil
}

func createResource(cfg config.TelemetryConfig) (*resource.Resource, error) {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(contracts.Version),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", fmt.Sprintf("%s-%d", hostname, os.Getpid())),
	), nil
}

func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, out io.Writer) error {
	if cfg.TraceExporter != "stdout" {
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)

	t.TracerProvider = tp
	t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(contracts.Version))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(t.Registry),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.MeterProvider = mp
	t.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(contracts.Version))
	return nil
}

// MetricsHandler serves the registry in the Prometheus exposition format.
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{})
}

// WriteMetricsFile writes the current metric values to path in the
// node_exporter textfile format.
func (t *Telemetry) WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, t.Registry)
}

// Shutdown flushes pending spans and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
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
	return errors.Join(errs...)
}

// ConversionMetrics holds the instruments recorded while parsing and
// exporting documents.
type ConversionMetrics struct {
	FilesParsed     metric.Int64Counter
	ScansExtracted  metric.Int64Counter
	PointsExtracted metric.Int64Counter
	ParseDuration   metric.Float64Histogram
	Exports         metric.Int64Counter

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// CreateConversionMetrics registers every instrument on meter.
func CreateConversionMetrics(meter metric.Meter) (*ConversionMetrics, error) {
	var (
		m   ConversionMetrics
		err error
	)

	if m.FilesParsed, err = meter.Int64Counter(
		"psconvert_files_parsed",
		metric.WithDescription("Total number of parsed input files by status"),
	); err != nil {
		return nil, err
	}
	if m.ScansExtracted, err = meter.Int64Counter(
		"psconvert_scans_extracted",
		metric.WithDescription("Total number of scans extracted"),
	); err != nil {
		return nil, err
	}
	if m.PointsExtracted, err = meter.Int64Counter(
		"psconvert_points_extracted",
		metric.WithDescription("Total number of potential/current points extracted"),
	); err != nil {
		return nil, err
	}
	if m.ParseDuration, err = meter.Float64Histogram(
		"psconvert_parse_duration",
		metric.WithDescription("Parse duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.Exports, err = meter.Int64Counter(
		"psconvert_exports",
		metric.WithDescription("Total number of exports by format and status"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"psconvert_http_requests",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"psconvert_http_request_duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordParse records one parse attempt. Scan and point counts are only
// added for successful parses.
func (m *ConversionMetrics) RecordParse(ctx context.Context, err error, scans, points int, duration time.Duration) {
	if m == nil {
		return
	}
	status := statusOf(err)
	m.FilesParsed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.ParseDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
	if err == nil {
		m.ScansExtracted.Add(ctx, int64(scans))
		m.PointsExtracted.Add(ctx, int64(points))
	}
}

// RecordExport records one export attempt.
func (m *ConversionMetrics) RecordExport(ctx context.Context, format string, err error) {
	if m == nil {
		return
	}
	m.Exports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("status", statusOf(err)),
	))
}

// RecordHTTPRequest records a served request.
func (m *ConversionMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

func statusOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// TraceIDFromContext extracts the OpenTelemetry trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// SpanIDFromContext extracts the OpenTelemetry span ID from context
func SpanIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.SpanID().String()
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
