package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Options selects what New wires up besides the Prometheus meter.
type Options struct {
	ServiceName      string
	TracingEnabled   bool
	TraceSampleRatio float64
}

type Observability struct {
	meterProvider   *metric.MeterProvider
	tracerProvider  *sdktrace.TracerProvider
	meter           otelmetric.Meter
	tracer          trace.Tracer
	jobCounter      otelmetric.Int64Counter
	jobDuration     otelmetric.Float64Histogram
	profileCounter  otelmetric.Int64Counter
	profileDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	return NewWithOptions(Options{ServiceName: serviceName})
}

func NewWithOptions(opts Options) *Observability {
	o := &Observability{
		tracer: otel.Tracer(opts.ServiceName),
	}

	if opts.TracingEnabled {
		o.initTracing(opts)
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(opts.ServiceName)

	o.meterProvider = provider
	o.meter = meter

	o.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.profileCounter, _ = meter.Int64Counter(
		"techdata.profiles",
		otelmetric.WithDescription("Technical profiles assembled, by outcome"),
	)
	o.profileDuration, _ = meter.Float64Histogram(
		"techdata.profile.duration",
		otelmetric.WithDescription("Technical profile aggregation duration"),
		otelmetric.WithUnit("ms"),
	)

	return o
}

func (o *Observability) initTracing(opts Options) {
	exporter, err := stdouttrace.New()
	if err != nil {
		log.Printf("Failed to create trace exporter: %v", err)
		return
	}

	ratio := opts.TraceSampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)

	o.tracerProvider = tp
	o.tracer = tp.Tracer(opts.ServiceName)
}

// StartSpan starts a span on the service tracer. It is a no-op span unless tracing is enabled.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordProfile counts one aggregation. lubricantSource is "provider", "heuristic" or "none".
func (o *Observability) RecordProfile(ctx context.Context, duration time.Duration, vehicleFound bool, lubricantSource string) {
	attrs := otelmetric.WithAttributes(
		attribute.Bool("vehicle_found", vehicleFound),
		attribute.String("lubricant_source", lubricantSource),
	)
	if o.profileCounter != nil {
		o.profileCounter.Add(ctx, 1, attrs)
	}
	if o.profileDuration != nil {
		o.profileDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
