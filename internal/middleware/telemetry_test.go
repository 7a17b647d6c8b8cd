package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteStatsQuantiles(t *testing.T) {
	var st routeStats
	for ms := int64(1); ms <= 100; ms++ {
		st.observe(ms)
	}

	p50, p95 := st.quantiles()
	if p50 != 50 {
		t.Fatalf("p50 = %d, want 50", p50)
	}
	if p95 != 95 {
		t.Fatalf("p95 = %d, want 95", p95)
	}
}

func TestRouteStatsWindowWraps(t *testing.T) {
	var st routeStats
	for i := 0; i < statsWindow; i++ {
		st.observe(1000)
	}
	for i := 0; i < statsWindow; i++ {
		st.observe(5)
	}

	p50, p95 := st.quantiles()
	if p50 != 5 || p95 != 5 {
		t.Fatalf("old samples survived the window: p50=%d p95=%d", p50, p95)
	}
}

func TestRouteStatsEmpty(t *testing.T) {
	var st routeStats
	if p50, p95 := st.quantiles(); p50 != 0 || p95 != 0 {
		t.Fatalf("empty window should report zeros, got p50=%d p95=%d", p50, p95)
	}
}

func TestRequestIDEchoesInbound(t *testing.T) {
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("response id = %q, want abc-123", got)
	}
}

func TestRequestIDMintsWhenAbsent(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected a generated request id on the request")
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatalf("response id %q does not match request id %q", rec.Header().Get("X-Request-Id"), seen)
	}
}
