package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/retrovault/storefront-backend"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	SearchDuration  metric.Float64Histogram
	SearchResults   metric.Int64Histogram
	IndexDuration   metric.Float64Histogram
	CacheHitCount   metric.Int64Counter
	CacheMissCount  metric.Int64Counter
}

// Setup initializes OpenTelemetry
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

	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// defaultMetrics backs the package-level recording helpers used by the
// services. Nil until InitMetrics runs; recording is a no-op before that,
// which keeps tests free of OTel setup.
var defaultMetrics *Metrics

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"search.duration",
		metric.WithDescription("Search pipeline duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	searchResults, err := meter.Int64Histogram(
		"search.result.count",
		metric.WithDescription("Number of results returned per search"),
	)
	if err != nil {
		return nil, err
	}

	indexDuration, err := meter.Float64Histogram(
		"index.operation.duration",
		metric.WithDescription("Index maintenance operation duration in milliseconds"),
		metric.WithUnit("ms"),
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

	m := &Metrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		SearchDuration:  searchDuration,
		SearchResults:   searchResults,
		IndexDuration:   indexDuration,
		CacheHitCount:   cacheHitCount,
		CacheMissCount:  cacheMissCount,
	}
	defaultMetrics = m
	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
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

// RecordRequestMetric records a request metric with attributes
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordSearchMetric records one search pipeline execution
func RecordSearchMetric(ctx context.Context, kind string, results int, duration time.Duration) {
	if defaultMetrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("search.kind", kind),
	}
	defaultMetrics.SearchDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	defaultMetrics.SearchResults.Record(ctx, int64(results), metric.WithAttributes(attrs...))
}

// RecordIndexMetric records an index maintenance operation
func RecordIndexMetric(ctx context.Context, operation string, duration time.Duration) {
	if defaultMetrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("index.operation", operation),
	}
	defaultMetrics.IndexDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, route string) {
	if defaultMetrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.route", route),
	}
	defaultMetrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, route string) {
	if defaultMetrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.route", route),
	}
	defaultMetrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}
