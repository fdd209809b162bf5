// Package prom implements the observability hooks with Prometheus metrics.
//
// Call [Register] once at startup; it installs engine, store and HTTP hooks
// that record into the given registerer:
//
//	reg := prometheus.NewRegistry()
//	prom.Register(reg)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/gridengine/pkg/observability"
)

const namespace = "gridengine"

// Metrics holds the collectors behind the hooks.
type Metrics struct {
	operations      *prometheus.CounterVec
	operationErrors *prometheus.CounterVec
	operationTime   *prometheus.HistogramVec
	changeSetSize   prometheus.Histogram
	cascades        prometheus.Histogram

	storeLoads  *prometheus.CounterVec
	storeBytes  *prometheus.HistogramVec
	storeErrors *prometheus.CounterVec

	inflight    prometheus.Gauge
	requests    *prometheus.CounterVec
	requestTime *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by kind.",
		}, []string{"op"}),
		operationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed engine operations by kind.",
		}, []string{"op"}),
		operationTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"op"}),
		changeSetSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "changeset_size",
			Help:      "Changes per committed change-set.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		cascades: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cascade_depth",
			Help:      "Depth of items displaced by collisions.",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}),

		storeLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "loads_total",
			Help:      "Layout lookups by backend and result.",
		}, []string{"backend", "result"}),
		storeBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "save_bytes",
			Help:      "Size of saved layout documents.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"backend"}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Failed store operations.",
		}, []string{"backend", "op"}),

		inflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Completed requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register creates the collectors on reg and installs them as the global
// observability hooks.
func Register(reg prometheus.Registerer) *Metrics {
	m := New(reg)
	observability.SetEngineHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
	return m
}

// OnOperation implements observability.EngineHooks.
func (m *Metrics) OnOperation(op, _ string, changes int, d time.Duration, err error) {
	m.operations.WithLabelValues(op).Inc()
	m.operationTime.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.operationErrors.WithLabelValues(op).Inc()
		return
	}
	m.changeSetSize.Observe(float64(changes))
}

// OnCascade implements observability.EngineHooks.
func (m *Metrics) OnCascade(_ string, depth int) {
	m.cascades.Observe(float64(depth))
}

// OnLoad implements observability.StoreHooks.
func (m *Metrics) OnLoad(_ context.Context, backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.storeLoads.WithLabelValues(backend, result).Inc()
}

// OnSave implements observability.StoreHooks.
func (m *Metrics) OnSave(_ context.Context, backend string, size int) {
	m.storeBytes.WithLabelValues(backend).Observe(float64(size))
}

// OnError implements observability.StoreHooks.
func (m *Metrics) OnError(_ context.Context, backend, op string, _ error) {
	m.storeErrors.WithLabelValues(backend, op).Inc()
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string) {
	m.inflight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.inflight.Dec()
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.EngineHooks = (*Metrics)(nil)
	_ observability.StoreHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
