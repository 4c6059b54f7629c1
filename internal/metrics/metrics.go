package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	namespace = "reelay"

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Video generation requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall-clock duration of generation requests",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 240, 480},
		},
		[]string{"outcome"},
	)

	statusPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_polls_total",
			Help:      "Status polls issued against the generation backend",
		},
		[]string{"outcome"},
	)
)

func HTTPRequestsTotal(method, path, code string) {
	httpRequestsTotal.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"code":   code,
	}).Inc()
}

func HTTPRequestDuration(method, path string, duration time.Duration) {
	httpRequestDuration.With(prometheus.Labels{
		"method": method,
		"path":   path,
	}).Observe(duration.Seconds())
}

func GenerationResult(outcome string, duration time.Duration) {
	generationRequestsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
	generationDuration.With(prometheus.Labels{"outcome": outcome}).Observe(duration.Seconds())
}

func StatusPoll(outcome string) {
	statusPollsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// Middleware records request counts and latencies. The path label uses the
// matched route pattern so operation ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal(r.Method, path, strconv.Itoa(ww.status))
		HTTPRequestDuration(r.Method, path, time.Since(start))
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// InstrumentTransport wraps an http.RoundTripper so every status poll against
// the generation backend is counted. Submission uses POST and is skipped; the
// handler layer accounts for it.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &pollCountingTransport{next: next}
}

type pollCountingTransport struct {
	next http.RoundTripper
}

func (t *pollCountingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(r)
	if r.Method == http.MethodGet {
		switch {
		case err != nil:
			StatusPoll("network_error")
		case resp.StatusCode >= 400:
			StatusPoll("http_error")
		default:
			StatusPoll("ok")
		}
	}
	return resp, err
}
