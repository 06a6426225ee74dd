// Package metrics exposes Prometheus collectors for the pricing API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups HTTP and pricing collectors. A nil *Metrics is a no-op.
type Metrics struct {
	ReqTotal         *prometheus.CounterVec
	ReqDur           *prometheus.HistogramVec
	DraftsTotal      *prometheus.CounterVec
	DraftItems       prometheus.Histogram
	TerminalsCreated prometheus.Counter
	EventsFailed     *prometheus.CounterVec
}

// New registers collectors on reg; nil reg means the default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "route"}),
		DraftsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_prices_total",
			Help:      "Draft price calculations by outcome.",
		}, []string{"outcome"}),
		DraftItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "draft_price_items",
			Help:      "Number of line items per successful draft price.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		TerminalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terminals_created_total",
			Help:      "Bus terminals registered.",
		}),
		EventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be published to Kafka.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.ReqTotal, m.ReqDur, m.DraftsTotal, m.DraftItems, m.TerminalsCreated, m.EventsFailed)
	return m
}

// ObserveDraft учитывает расчёт цены
func (m *Metrics) ObserveDraft(outcome string, items int) {
	if m == nil {
		return
	}
	m.DraftsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.DraftItems.Observe(float64(items))
	}
}

// ObserveTerminalCreated учитывает регистрацию терминала
func (m *Metrics) ObserveTerminalCreated() {
	if m == nil {
		return
	}
	m.TerminalsCreated.Inc()
}

// ObservePublishFailure учитывает неотправленное событие
func (m *Metrics) ObservePublishFailure(eventType string) {
	if m == nil {
		return
	}
	m.EventsFailed.WithLabelValues(eventType).Inc()
}

// Middleware считает запросы и их длительность под именем маршрута
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.ReqDur.WithLabelValues(r.Method, route).Observe(float64(time.Since(start)) / float64(time.Millisecond))
	})
}

// Handler отдаёт метрики в формате Prometheus
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
