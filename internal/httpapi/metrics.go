package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "providerd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "providerd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"route", "method"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpLatency)
}

// MetricsMiddleware records request counts and latency labelled by chi route
// pattern. Unmatched requests are labelled "unmatched".
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routeLabel(r)
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// routeLabel must run after routing; chi fills the pattern while matching.
func routeLabel(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return "unmatched"
	}
	if p := rc.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}
