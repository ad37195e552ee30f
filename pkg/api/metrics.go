package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestDuration tracks request latency by method and path.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// ordersTotal counts accepted orders by market and side.
	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbook_orders_total",
			Help: "Total number of accepted orders",
		},
		[]string{"market", "side"},
	)

	// ordersRejectedTotal counts rejected orders by reason.
	ordersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbook_orders_rejected_total",
			Help: "Total number of rejected orders by reason",
		},
		[]string{"market", "reason"},
	)

	// fillsTotal counts fills produced by matching.
	fillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbook_fills_total",
			Help: "Total number of fills",
		},
		[]string{"market"},
	)

	// cancelsTotal counts successful cancellations.
	cancelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openbook_cancels_total",
			Help: "Total number of cancelled orders",
		},
		[]string{"market"},
	)

	// bookDepth tracks the number of open orders per side.
	bookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openbook_book_depth",
			Help: "Open orders resident in the book",
		},
		[]string{"market", "side"},
	)
)

// statusRecorder captures the response status for the latency histogram.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records request duration for every route.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestDuration.WithLabelValues(
			r.Method, r.URL.Path, strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	})
}
