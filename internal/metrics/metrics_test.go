package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New("bus", registry)
	handler := m.Middleware("/api/pricing/draft", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/pricing/draft", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if total := testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodPost, "/api/pricing/draft", "404")); total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}
	if samples := testutil.CollectAndCount(m.ReqDur); samples == 0 {
		t.Fatalf("expected histogram sample")
	}
}

func TestObserveDraft(t *testing.T) {
	m := New("bus", prometheus.NewRegistry())
	m.ObserveDraft("ok", 4)
	m.ObserveDraft("not_found", 0)
	m.ObserveTerminalCreated()
	m.ObservePublishFailure("price.drafted")

	if v := testutil.ToFloat64(m.DraftsTotal.WithLabelValues("ok")); v != 1 {
		t.Fatalf("expected 1 ok draft, got %v", v)
	}
	if v := testutil.ToFloat64(m.DraftsTotal.WithLabelValues("not_found")); v != 1 {
		t.Fatalf("expected 1 not_found draft, got %v", v)
	}
	if v := testutil.ToFloat64(m.TerminalsCreated); v != 1 {
		t.Fatalf("expected 1 terminal, got %v", v)
	}
	if v := testutil.ToFloat64(m.EventsFailed.WithLabelValues("price.drafted")); v != 1 {
		t.Fatalf("expected 1 publish failure, got %v", v)
	}
}

func TestNilMetricsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDraft("ok", 1)
	m.ObserveTerminalCreated()
	m.ObservePublishFailure("x")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if h := m.Middleware("/", next); h == nil {
		t.Fatalf("expected passthrough handler")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New("bus", registry)
	m.ObserveTerminalCreated()

	rr := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "bus_terminals_created_total 1") {
		t.Fatalf("expected terminal counter in output:\n%s", rr.Body.String())
	}
}
