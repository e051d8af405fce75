// Package prom implements the observability hooks with Prometheus metrics.
//
// All collectors are registered on the Registerer passed to [New], so tests
// and embedding applications can keep them off the global registry:
//
//	reg := prometheus.NewRegistry()
//	h := prom.New(reg)
//	observability.SetHTTPHooks(h)
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/fetchflow/pkg/observability"
)

// Hooks records cache, HTTP and poll events as Prometheus metrics.
type Hooks struct {
	CacheOps *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPErrors   *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	PollCycles  *prometheus.CounterVec
	PollLatency prometheus.Histogram
	PollActive  prometheus.Gauge
}

// New creates Hooks with collectors registered on reg.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		CacheOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchflow_cache_operations_total",
				Help: "Cache operations by provider and result",
			},
			[]string{"provider", "op"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchflow_http_requests_total",
				Help: "HTTP responses received, by method, host and status code",
			},
			[]string{"method", "host", "code"},
		),
		HTTPErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchflow_http_errors_total",
				Help: "Classified request failures",
			},
			[]string{"method", "host", "kind"},
		),
		HTTPLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fetchflow_http_latency_seconds",
				Help:    "Time until response headers and body were received",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "host"},
		),
		PollCycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchflow_poll_cycles_total",
				Help: "Completed poll cycles by outcome",
			},
			[]string{"outcome"},
		),
		PollLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fetchflow_poll_cycle_seconds",
				Help:    "Duration of poll fetch-and-emit cycles",
				Buckets: prometheus.DefBuckets,
			},
		),
		PollActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "fetchflow_poll_sessions_active",
				Help: "Poll sessions currently polling",
			},
		),
	}
}

func (h *Hooks) OnCacheHit(_ context.Context, provider string) {
	h.CacheOps.WithLabelValues(provider, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, provider string) {
	h.CacheOps.WithLabelValues(provider, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, provider string) {
	h.CacheOps.WithLabelValues(provider, "set").Inc()
}

func (h *Hooks) OnCacheEvict(_ context.Context, provider string) {
	h.CacheOps.WithLabelValues(provider, "evict").Inc()
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, method, host, _ string, statusCode int, d time.Duration) {
	h.HTTPRequests.WithLabelValues(method, host, statusLabel(statusCode)).Inc()
	h.HTTPLatency.WithLabelValues(method, host).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, method, host, _ string, kind string) {
	h.HTTPErrors.WithLabelValues(method, host, kind).Inc()
}

func (h *Hooks) OnPollStart(context.Context, string, string) {
	h.PollActive.Inc()
}

func (h *Hooks) OnPollCycle(_ context.Context, _, _ string, fromCache bool, d time.Duration, err error) {
	outcome := "fresh"
	switch {
	case err != nil:
		outcome = "error"
	case fromCache:
		outcome = "cached"
	}
	h.PollCycles.WithLabelValues(outcome).Inc()
	h.PollLatency.Observe(d.Seconds())
}

func (h *Hooks) OnPollStop(context.Context, string, string) {
	h.PollActive.Dec()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}

var (
	_ observability.CacheHooks = (*Hooks)(nil)
	_ observability.HTTPHooks  = (*Hooks)(nil)
	_ observability.PollHooks  = (*Hooks)(nil)
)
