package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamestore",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamestore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamestore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamestore",
			Subsystem: "accounts",
			Name:      "registrations_total",
			Help:      "Account registrations by role and outcome.",
		},
		[]string{"role", "outcome"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamestore",
			Subsystem: "accounts",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	cartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamestore",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart add/remove calls by outcome.",
		},
		[]string{"op", "outcome"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamestore",
			Subsystem: "cart",
			Name:      "checkouts_total",
			Help:      "Checkout transitions by outcome.",
		},
		[]string{"outcome"},
	)

	storeRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gamestore",
			Subsystem: "store",
			Name:      "rows",
			Help:      "Row count per relation, refreshed periodically.",
		},
		[]string{"table"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamestore",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Live sessions in the session cache.",
		},
	)

	gamesPurchased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamestore",
			Subsystem: "library",
			Name:      "games_purchased_total",
			Help:      "Library entries created by checkout.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		registrations,
		logins,
		cartMutations,
		checkouts,
		gamesPurchased,
		storeRows,
		activeSessions,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records in-flight, count and latency for every request.
// Routes are labelled with the chi pattern to keep label cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RecordRegistration counts a registration attempt.
func RecordRegistration(role, outcome string) {
	registrations.WithLabelValues(role, outcome).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(outcome string) {
	logins.WithLabelValues(outcome).Inc()
}

// RecordCartMutation counts an add or remove call.
func RecordCartMutation(op, outcome string) {
	cartMutations.WithLabelValues(op, outcome).Inc()
}

// RecordCheckout counts a checkout and the games it moved into the library.
func RecordCheckout(outcome string, purchased int64) {
	checkouts.WithLabelValues(outcome).Inc()
	if purchased > 0 {
		gamesPurchased.Add(float64(purchased))
	}
}

// SetStoreRows publishes the row count of a relation.
func SetStoreRows(table string, n int64) {
	storeRows.WithLabelValues(table).Set(float64(n))
}

// SetActiveSessions publishes the live session count.
func SetActiveSessions(n int64) {
	activeSessions.Set(float64(n))
}
