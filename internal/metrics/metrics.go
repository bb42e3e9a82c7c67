package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sncosmo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sncosmo_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	invertIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sncosmo_invert_iterations",
			Help:    "Iterations needed to invert a distance modulus.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50, 100, 500},
		},
	)

	invertFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sncosmo_invert_failures_total",
			Help: "Distance modulus inversions that did not converge.",
		},
	)

	batchItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sncosmo_batch_items_total",
			Help: "Items evaluated by the batch worker pool.",
		},
		[]string{"op", "status"},
	)

	batchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sncosmo_batch_duration_seconds",
			Help:    "Wall time of a batch evaluation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"op"},
	)

	modelReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sncosmo_model_reloads_total",
			Help: "Model snapshot builds by result.",
		},
		[]string{"result"},
	)

	modelKind = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sncosmo_model_kind",
			Help: "Active H(z) representation (1 for the active kind).",
		},
		[]string{"kind"},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sncosmo_stream_connections_total",
			Help: "Model stream connects and disconnects.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sncosmo_streams_active",
			Help: "Open model streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sncosmo_stream_messages_total",
			Help: "Model events sent to stream clients.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sncosmo_stream_bytes_total",
			Help: "Bytes written to stream clients.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sncosmo_stream_errors_total",
			Help: "Stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(invertIterations)
	prometheus.MustRegister(invertFailuresTotal)
	prometheus.MustRegister(batchItemsTotal)
	prometheus.MustRegister(batchDurationSeconds)
	prometheus.MustRegister(modelReloadsTotal)
	prometheus.MustRegister(modelKind)
	prometheus.MustRegister(streamConnectionsTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamMessagesTotal)
	prometheus.MustRegister(streamBytesTotal)
	prometheus.MustRegister(streamErrorsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveInversion records one modulus inversion.
func ObserveInversion(iterations int, converged bool) {
	invertIterations.Observe(float64(iterations))
	if !converged {
		invertFailuresTotal.Inc()
	}
}

// ObserveBatch records a finished batch.
func ObserveBatch(op string, ok, failed int, d time.Duration) {
	batchItemsTotal.WithLabelValues(op, "ok").Add(float64(ok))
	batchItemsTotal.WithLabelValues(op, "failed").Add(float64(failed))
	batchDurationSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveReload records a snapshot build attempt.
func ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	modelReloadsTotal.WithLabelValues(result).Inc()
}

// SetModelKind marks kind as the active representation.
func SetModelKind(kind string) {
	modelKind.Reset()
	modelKind.WithLabelValues(kind).Set(1)
}

// IncStreamConnections counts a stream "connect" or "disconnect".
func IncStreamConnections(event string) { streamConnectionsTotal.WithLabelValues(event).Inc() }

// IncStreamsActive and DecStreamsActive track open streams.
func IncStreamsActive() { streamsActive.Inc() }

func DecStreamsActive() { streamsActive.Dec() }

// IncStreamMessages counts one event sent.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes counts bytes written to stream clients.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncStreamErrors counts a stream error by reason.
func IncStreamErrors(reason string) { streamErrorsTotal.WithLabelValues(reason).Inc() }

var knownRoutes = map[string]bool{
	"/":                       true,
	"/healthz":                true,
	"/readyz":                 true,
	"/metrics":                true,
	"/api/v1/hubble":          true,
	"/api/v1/distance":        true,
	"/api/v1/invert":          true,
	"/api/v1/translate":       true,
	"/api/v1/volume":          true,
	"/api/v1/sfr":             true,
	"/api/v1/model":           true,
	"/api/v1/batch/distance":  true,
	"/api/v1/batch/invert":    true,
	"/api/v1/batch/translate": true,
	"/api/v1/stream/model":    true,
}

// normalizeRoute maps a request path to a bounded label set. Unknown
// paths share the "other" label.
func normalizeRoute(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
