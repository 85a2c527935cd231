package babylon

import (
	"context"
	"errors"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// tracer is the package-level tracer used by all instrumented code.
// It stays a noop tracer unless InitTracer finds an OTLP endpoint.
var tracer trace.Tracer = noop.NewTracerProvider().Tracer("babylon")

// meter backs the export and import counters.
var meter metric.Meter = metricnoop.NewMeterProvider().Meter("babylon")

func telemetryResource(serviceName, ver string) *resource.Resource {
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ver),
		),
	)
	return res
}

// InitTracer sets up the OpenTelemetry TracerProvider.
// If OTEL_EXPORTER_OTLP_ENDPOINT is set, it creates an OTLP HTTP exporter
// with a BatchSpanProcessor. Otherwise, it keeps the noop tracer.
// Returns a shutdown function that flushes and closes the exporter.
func InitTracer(serviceName, ver string) func(context.Context) error {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }
	}

	exp, err := otlptracehttp.New(context.Background())
	if err != nil {
		LogWarn("trace exporter: %v", err)
		return func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(telemetryResource(serviceName, ver)),
	)
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)

	return tp.Shutdown
}

// InitMeter sets up a MeterProvider pushing to the same OTLP endpoint as
// InitTracer, and rebuilds the counters on it.
func InitMeter(serviceName, ver string) func(context.Context) error {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }
	}

	exp, err := otlpmetrichttp.New(context.Background())
	if err != nil {
		LogWarn("metric exporter: %v", err)
		return func(context.Context) error { return nil }
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(telemetryResource(serviceName, ver)),
	)
	otel.SetMeterProvider(mp)
	setMeter(mp.Meter(serviceName))

	return mp.Shutdown
}

type instruments struct {
	rows         metric.Int64Counter
	newFiles     metric.Int64Counter
	files        metric.Int64Counter
	translations metric.Int64Counter
}

var counters = mustInstruments(meter)

func setMeter(m metric.Meter) {
	meter = m
	counters = mustInstruments(m)
}

func mustInstruments(m metric.Meter) instruments {
	var errs error
	newCounter := func(name, desc string) metric.Int64Counter {
		c, err := m.Int64Counter(name, metric.WithDescription(desc))
		errs = errors.Join(errs, err)
		return c
	}
	in := instruments{
		rows:         newCounter("babylon.export.rows", "Rows exported for translation"),
		newFiles:     newCounter("babylon.export.new_files", "Message files seen for the first time"),
		files:        newCounter("babylon.files", "Message files processed"),
		translations: newCounter("babylon.import.translations", "Translations written back"),
	}
	if errs != nil {
		panic(errs)
	}
	return in
}

func recordExportMetrics(ctx context.Context, res ExportResult) {
	kind := metric.WithAttributes(attribute.String("kind", RunExport))
	counters.files.Add(ctx, int64(len(res.Stats)), kind)
	counters.newFiles.Add(ctx, int64(len(res.NewFilePaths)))
	counters.rows.Add(ctx, int64(res.TotalRows()))
}

func recordImportMetrics(ctx context.Context, files, translations int) {
	counters.files.Add(ctx, int64(files), metric.WithAttributes(attribute.String("kind", RunImport)))
	counters.translations.Add(ctx, int64(translations))
}
