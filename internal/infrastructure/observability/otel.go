package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const meterName = "github.com/kyrelabs/dealsource"

// Metrics holds all application metrics
type Metrics struct {
	SearchCount      metric.Int64Counter
	SearchDuration   metric.Float64Histogram
	ProviderLatency  metric.Float64Histogram
	ProviderResults  metric.Int64Counter
	ProviderFailures metric.Int64Counter
	CacheHitCount    metric.Int64Counter
	CacheMissCount   metric.Int64Counter
}

// defaultMetrics is set once by InitMetrics during startup. The record
// helpers are no-ops until then, so code paths can emit metrics without
// caring whether telemetry is configured.
var defaultMetrics *Metrics

// Setup initializes OpenTelemetry tracing and metrics
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Set up metric exporter
	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	searchCount, err := meter.Int64Counter(
		"search.count",
		metric.WithDescription("Number of aggregated searches"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"search.duration",
		metric.WithDescription("Aggregated search duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	providerLatency, err := meter.Float64Histogram(
		"search.provider.latency",
		metric.WithDescription("Per-provider search latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	providerResults, err := meter.Int64Counter(
		"search.provider.results",
		metric.WithDescription("Number of results returned per provider"),
	)
	if err != nil {
		return nil, err
	}

	providerFailures, err := meter.Int64Counter(
		"search.provider.failures",
		metric.WithDescription("Number of non-ok provider outcomes"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"cache.hit.count",
		metric.WithDescription("Number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCount, err := meter.Int64Counter(
		"cache.miss.count",
		metric.WithDescription("Number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	metrics := &Metrics{
		SearchCount:      searchCount,
		SearchDuration:   searchDuration,
		ProviderLatency:  providerLatency,
		ProviderResults:  providerResults,
		ProviderFailures: providerFailures,
		CacheHitCount:    cacheHitCount,
		CacheMissCount:   cacheMissCount,
	}
	defaultMetrics = metrics
	return metrics, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(meterName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordSearchMetric records one aggregated search
func RecordSearchMetric(ctx context.Context, resultCount int, durationMS int64) {
	if defaultMetrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Int("search.result_count", resultCount),
	}
	defaultMetrics.SearchCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	defaultMetrics.SearchDuration.Record(ctx, float64(durationMS), metric.WithAttributes(attrs...))
}

// RecordProviderMetric records one provider outcome within a fan-out
func RecordProviderMetric(ctx context.Context, providerID, status string, resultCount int, latencyMS int64) {
	if defaultMetrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider.id", providerID),
		attribute.String("provider.status", status),
	}
	defaultMetrics.ProviderLatency.Record(ctx, float64(latencyMS), metric.WithAttributes(attrs...))
	defaultMetrics.ProviderResults.Add(ctx, int64(resultCount), metric.WithAttributes(attrs...))
	if status != "ok" {
		defaultMetrics.ProviderFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.CacheHitCount.Add(ctx, 1)
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.CacheMissCount.Add(ctx, 1)
}
