package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bizledger",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bizledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	httpPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizledger",
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Handler panics recovered, by route.",
		},
		[]string{"route"},
	)

	postings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizledger",
			Subsystem: "ledger",
			Name:      "postings_total",
			Help:      "Transactions submitted for posting, by outcome.",
		},
		[]string{"outcome"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizledger",
			Subsystem: "maintenance",
			Name:      "runs_total",
			Help:      "Maintenance job runs, by job and success.",
		},
		[]string{"job", "success"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bizledger",
			Subsystem: "maintenance",
			Name:      "run_duration_seconds",
			Help:      "Duration of maintenance job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)

	jobItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizledger",
			Subsystem: "maintenance",
			Name:      "items_changed_total",
			Help:      "Rows corrected by maintenance jobs.",
		},
		[]string{"job"},
	)

	outboxDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizledger",
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox events processed, by resulting status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		httpPanics,
		postings,
		jobRuns,
		jobDuration,
		jobItems,
		outboxDispatched,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request metrics labelled by the matched mux
// pattern, so it must wrap the ServeMux rather than sit inside it.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordPanic counts a recovered handler panic. An empty route means the
// panic happened before the mux matched a pattern.
func RecordPanic(route string) {
	if route == "" {
		route = "unmatched"
	}
	httpPanics.WithLabelValues(route).Inc()
}

func RecordPosting(outcome string) {
	postings.WithLabelValues(outcome).Inc()
}

// RecordJob records one maintenance run and the number of rows it changed.
func RecordJob(job string, duration time.Duration, changed int, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if changed > 0 {
		jobItems.WithLabelValues(job).Add(float64(changed))
	}
}

func RecordOutbox(status string) {
	outboxDispatched.WithLabelValues(status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
