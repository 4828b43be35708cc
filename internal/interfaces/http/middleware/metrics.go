package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/infrastructure/metrics"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
)

// HTTP metric attribute keys
var (
	AttrHTTPMethod     = attribute.Key("http.request.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.response.status_code")
)

// HTTPDurationBuckets are latency bucket boundaries in seconds
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Collector receives every request for the /metrics endpoint. May be nil.
	Collector *metrics.Collector
	// Meter exports the same data over OTLP. May be nil.
	Meter  metric.Meter
	Logger *zap.Logger
}

type otelHTTPMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newOtelHTTPMetrics(meter metric.Meter) (*otelHTTPMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	requestDuration, err := telemetry.NewHistogram(meter,
		"http_server_request_duration_seconds", "HTTP request latency in seconds", "s", HTTPDurationBuckets...)
	if err != nil {
		return nil, err
	}
	activeRequests, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &otelHTTPMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics records request count and latency per route template.
// Unmatched paths share the "unknown" route to bound cardinality.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	var instruments *otelHTTPMetrics
	if cfg.Meter != nil {
		var err error
		if instruments, err = newOtelHTTPMetrics(cfg.Meter); err != nil && cfg.Logger != nil {
			cfg.Logger.Warn("OTLP HTTP metrics disabled", zap.Error(err))
		}
	}

	if cfg.Collector == nil && instruments == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		if instruments != nil {
			instruments.activeRequests.Add(ctx, 1)
		}

		c.Next()

		duration := time.Since(start)
		route := c.FullPath()
		status := c.Writer.Status()

		cfg.Collector.ObserveHTTP(c.Request.Method, route, status, duration)
		if instruments != nil {
			instruments.activeRequests.Add(ctx, -1)
			recordOtelHTTPMetrics(ctx, instruments, c.Request.Method, route, status, duration)
		}
	}
}

func recordOtelHTTPMetrics(ctx context.Context, m *otelHTTPMetrics, method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	base := []attribute.KeyValue{
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route),
	}
	m.requestTotal.Inc(ctx, append(base, AttrHTTPStatusCode.Int(status))...)
	m.requestDuration.RecordDuration(ctx, duration, base...)
}
