package middleware

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const statsWindow = 200

// routeStats is a fixed-size ring of latency samples for one route pattern.
type routeStats struct {
	samples [statsWindow]int64
	next    int
	filled  bool
}

func (s *routeStats) observe(ms int64) {
	s.samples[s.next] = ms
	s.next++
	if s.next == statsWindow {
		s.next = 0
		s.filled = true
	}
}

func (s *routeStats) quantiles() (p50, p95 int64) {
	n := s.next
	if s.filled {
		n = statsWindow
	}
	if n == 0 {
		return 0, 0
	}
	sorted := make([]int64, n)
	copy(sorted, s.samples[:n])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return nearestRank(sorted, 0.5), nearestRank(sorted, 0.95)
}

// nearestRank expects sorted input.
func nearestRank(sorted []int64, q float64) int64 {
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type statsRegistry struct {
	mu     sync.Mutex
	routes map[string]*routeStats
}

func (reg *statsRegistry) observe(route string, ms int64) (int64, int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	st := reg.routes[route]
	if st == nil {
		st = &routeStats{}
		reg.routes[route] = st
	}
	st.observe(ms)
	return st.quantiles()
}

var httpStats = statsRegistry{routes: make(map[string]*routeStats)}

type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeter) WriteHeader(code int) {
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(data []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(data)
	m.bytes += n
	return n, err
}

// Telemetry logs one line per request with rolling p50/p95 latency for the
// matched chi route pattern.
func Telemetry(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meter := &responseMeter{ResponseWriter: w}

			next.ServeHTTP(meter, r)

			if logger == nil {
				return
			}
			status := meter.status
			if status == 0 {
				status = http.StatusOK
			}

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			latency := time.Since(start).Milliseconds()
			p50, p95 := httpStats.observe(r.Method+" "+route, latency)

			logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.String("requestId", strings.TrimSpace(r.Header.Get(requestIDHeader))),
				zap.Int("status", status),
				zap.Int("bytes", meter.bytes),
				zap.Int64("latencyMs", latency),
				zap.Int64("p50Ms", p50),
				zap.Int64("p95Ms", p95),
				zap.Bool("serverError", status >= 500),
			)
		})
	}
}
