// Package metrics declares the Prometheus collectors exported on /metrics.
// Collectors register with the default registry at init through promauto.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Booking engine ─────────────────────────────────────────────────────────

// BookingsAdmitted counts bookings created in PENDING.
var BookingsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "booking",
	Name:      "admitted_total",
	Help:      "Total booking requests admitted as PENDING.",
})

// AdmissionsRefused counts refused booking requests by error kind.
var AdmissionsRefused = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "booking",
	Name:      "admission_refused_total",
	Help:      "Total booking requests refused, by error kind.",
}, []string{"kind"})

// Transitions counts committed status changes.
var Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "booking",
	Name:      "transitions_total",
	Help:      "Total committed booking status transitions.",
}, []string{"from", "to", "actor"})

// TransitionsRefused counts refused status changes by error kind.
var TransitionsRefused = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "booking",
	Name:      "transition_refused_total",
	Help:      "Total booking status transitions refused, by error kind.",
}, []string{"to", "kind"})

// ─── Sweeper ────────────────────────────────────────────────────────────────

// SweepRuns counts sweeper passes.
var SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "sweeper",
	Name:      "runs_total",
	Help:      "Total sweeper passes, by result.",
}, []string{"result"})

// SweepDuration observes how long a sweeper pass takes.
var SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "rental",
	Subsystem: "sweeper",
	Name:      "duration_seconds",
	Help:      "Duration of a sweeper pass.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Events ─────────────────────────────────────────────────────────────────

// EventsPublished counts status-change events sent to the broker.
var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Total booking status events published, by result.",
}, []string{"result"})

// EventsConsumed counts status-change events handled by the consumer.
var EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "events",
	Name:      "consumed_total",
	Help:      "Total booking status events consumed, by result.",
}, []string{"result"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// CacheLookups counts response cache lookups by result (hit, miss).
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "http",
	Name:      "cache_lookups_total",
	Help:      "Total response cache lookups, by result.",
}, []string{"result"})

// RateLimited counts requests refused by the token bucket.
var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rental",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Total requests refused by the rate limiter, by route.",
}, []string{"route"})

// HTTPRequests observes request latency by route and status code.
var HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "rental",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method, route and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Middleware records HTTPRequests for every request.  The route label is
// the registered path pattern so ids do not blow up cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
