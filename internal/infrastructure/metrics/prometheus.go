// Package metrics exposes ledger and HTTP metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopledger/backend/internal/domain/inventory"
)

// Metric names.
const (
	MetricStockMutationsTotal = "shopledger_stock_mutations_total"
	MetricWriteConflictsTotal = "shopledger_ledger_write_conflicts_total"
	MetricRejectionsTotal     = "shopledger_ledger_rejections_total"
	MetricLowStockAlertsTotal = "shopledger_low_stock_alerts_total"
	MetricLowStockRecords     = "shopledger_low_stock_records"
	MetricEventDispatchTotal  = "shopledger_event_dispatch_total"
	MetricHTTPRequestsTotal   = "shopledger_http_requests_total"
	MetricHTTPDurationSeconds = "shopledger_http_request_duration_seconds"
)

// Collector records ledger outcomes and HTTP traffic. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	mutations      *prometheus.CounterVec
	conflicts      *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	lowStockAlerts *prometheus.CounterVec
	lowStock       prometheus.Gauge
	eventDispatch  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewCollector registers every metric on a fresh registry, together with
// the Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStockMutationsTotal,
			Help: "Stock movements written, by movement kind.",
		}, []string{"kind"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricWriteConflictsTotal,
			Help: "Compare-and-swap conflicts on inventory records, by operation.",
		}, []string{"operation"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRejectionsTotal,
			Help: "Ledger operations rejected, by operation and error code.",
		}, []string{"operation", "code"}),
		lowStockAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricLowStockAlertsTotal,
			Help: "Low stock alerts raised, by alert type.",
		}, []string{"alert_type"}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLowStockRecords,
			Help: "Inventory records at or below their stock limit at the last sweep.",
		}),
		eventDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricEventDispatchTotal,
			Help: "Domain event handler invocations, by event type and result.",
		}, []string{"event_type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPDurationSeconds,
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.mutations,
		c.conflicts,
		c.rejections,
		c.lowStockAlerts,
		c.lowStock,
		c.eventDispatch,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Registry:          c.registry,
		EnableOpenMetrics: true,
	})
}

// RecordMutation counts a stock movement.
func (c *Collector) RecordMutation(kind inventory.MovementKind) {
	if c == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(string(kind))).Inc()
}

// RecordConflict counts a compare-and-swap retry.
func (c *Collector) RecordConflict(operation string) {
	if c == nil {
		return
	}
	c.conflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// RecordRejection counts a ledger operation refused with a domain error.
func (c *Collector) RecordRejection(operation, code string) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// IncLowStockAlert counts a low stock alert.
func (c *Collector) IncLowStockAlert(alertType string) {
	if c == nil {
		return
	}
	c.lowStockAlerts.WithLabelValues(normalizeLabel(alertType)).Inc()
}

// SetLowStockRecords stores the result of the last low stock sweep.
func (c *Collector) SetLowStockRecords(count int) {
	if c == nil {
		return
	}
	c.lowStock.Set(float64(count))
}

// ObserveEventDispatch counts one event handler invocation.
func (c *Collector) ObserveEventDispatch(eventType string, failed bool) {
	if c == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	c.eventDispatch.WithLabelValues(normalizeLabel(eventType), result).Inc()
}

// ObserveHTTP records one served request. route is the matched route
// template, empty for unmatched paths.
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	route = normalizeLabel(route)
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
