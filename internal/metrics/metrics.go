// Package metrics provides Prometheus instrumentation for the salvage
// exchange backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesCompleted counts successful marketplace purchases.
	TradesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salvage_trades_completed_total",
		Help: "Total number of completed marketplace trades",
	})

	// CASConflicts counts version conflicts hit by the ledger's
	// read-modify-write loops, partitioned by operation.
	CASConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salvage_cas_conflicts_total",
		Help: "Document store version conflicts during ledger writes",
	}, []string{"op"})

	// CASExhausted counts operations that gave up after the retry budget.
	CASExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salvage_cas_retries_exhausted_total",
		Help: "Ledger operations that exhausted their CAS retry budget",
	}, []string{"op"})

	// ListingsActive tracks the number of active marketplace listings,
	// updated after every successful ledger write.
	ListingsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "salvage_listings_active",
		Help: "Number of active marketplace listings",
	})

	// LobbyClients tracks connected lobby WebSocket clients.
	LobbyClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "salvage_lobby_clients",
		Help: "Number of connected lobby WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salvage_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salvage_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Label by route pattern, not the concrete URL, so listing and
		// player IDs don't mint unbounded label values. The pattern is
		// only known after routing, hence reading it post-serve.
		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
