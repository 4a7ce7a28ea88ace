package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// CheckoutsInitiated counts pending payments created at checkout.
	CheckoutsInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_checkouts_initiated_total",
		Help: "Number of checkout sessions created with the payment gateway.",
	})

	// PaymentsReconciled counts reconciliation results by inbound signal
	// path and outcome.
	PaymentsReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_reconciled_total",
			Help: "Reconciliation results by signal source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	// WebhookSignatureFailures counts rejected webhook deliveries.
	WebhookSignatureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_webhook_signature_failures_total",
		Help: "Webhook deliveries rejected for an invalid signature.",
	})
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Metrics records request durations per route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		// The chi route pattern keeps label cardinality bounded; raw
		// paths would mint a series per distinct URL.
		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		httpRequestDuration.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(sw.status),
		).Observe(time.Since(start).Seconds())
	})
}
