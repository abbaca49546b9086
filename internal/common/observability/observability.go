package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OTel meter and tracer providers for the service.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	msgCounter     otelmetric.Int64Counter
	msgDuration    otelmetric.Float64Histogram
}

// New sets up a meter provider backed by the Prometheus exporter and, when a
// Jaeger collector URL is given, a tracer provider exporting to it.
func New(serviceName, jaegerURL string) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(o.meterProvider)
	o.meter = o.meterProvider.Meter(serviceName)

	o.msgCounter, _ = o.meter.Int64Counter(
		"messages.processed",
		otelmetric.WithDescription("Number of chat messages processed"),
	)
	o.msgDuration, _ = o.meter.Float64Histogram(
		"messages.duration",
		otelmetric.WithDescription("Chat message processing duration"),
		otelmetric.WithUnit("ms"),
	)

	if jaegerURL != "" {
		jexp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerURL)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			o.tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(jexp))
			otel.SetTracerProvider(o.tracerProvider)
		}
	}
	o.tracer = otel.Tracer(serviceName)

	return o
}

// Tracer returns the service tracer; safe on a zero-value Observability.
func (o *Observability) Tracer() trace.Tracer {
	if o.tracer == nil {
		o.tracer = otel.Tracer("infotec-chatbot")
	}
	return o.tracer
}

// RecordMessage records one processed message with its final intent.
func (o *Observability) RecordMessage(ctx context.Context, intent string) {
	if o.msgCounter != nil {
		o.msgCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("intent", intent),
		))
	}
}

// RecordDuration records the processing duration of one message.
func (o *Observability) RecordDuration(ctx context.Context, duration time.Duration, intent string) {
	if o.msgDuration != nil {
		o.msgDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("intent", intent),
		))
	}
}

// Shutdown flushes and stops the providers.
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
