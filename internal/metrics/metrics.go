// Package metrics provides Prometheus instrumentation for the simulation engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GamesTotal counts completed simulation runs, partitioned by outcome.
	GamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_games_total",
		Help: "Total number of completed simulation runs",
	}, []string{"outcome"})

	// GameDuration tracks wall-clock run time of a full simulation.
	GameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "simengine_game_duration_seconds",
		Help:    "Wall-clock duration of a full simulation run",
		Buckets: prometheus.DefBuckets,
	})

	// BetsTotal counts agent bets across all games, partitioned by side.
	BetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_bets_total",
		Help: "Total number of agent bets executed",
	}, []string{"side"})

	// EventsEmitted counts simulation events, partitioned by type.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_events_emitted_total",
		Help: "Total simulation events emitted",
	}, []string{"type"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simengine_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simengine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
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

		// Use the raw path for the label; the API surface is small enough
		// that cardinality stays bounded.
		path := r.URL.Path
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
