package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	sourceResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_source_resolutions_total",
		Help: "Widget data resolutions by outcome (live, offline, unavailable).",
	}, []string{"source", "outcome"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_auth_attempts_total",
		Help: "Token acquisition attempts by prompt mode and result.",
	}, []string{"mode", "result"})

	fetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_authenticated_fetch_retries_total",
		Help: "Authenticated requests retried after an unauthorized response.",
	})

	photoTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_photo_rotations_total",
		Help: "Photo carousel index changes, automatic and manual.",
	})
)

// Middleware records request metrics under the given route label.
func Middleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveSource(source, outcome string) {
	sourceResolutions.WithLabelValues(source, outcome).Inc()
}

func ObserveAuth(mode, result string) {
	authAttempts.WithLabelValues(mode, result).Inc()
}

func ObserveFetchRetry() {
	fetchRetries.Inc()
}

func ObservePhotoRotation() {
	photoTicks.Inc()
}
