// Package metrics exports session activity as prometheus collectors.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "greenstripes"

// Collector records backend requests, pump activity and connection state.
// It satisfies the session's metrics recorder interface.
type Collector struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	inFlight  *prometheus.GaugeVec
	events    prometheus.Counter
	state     *prometheus.GaugeVec

	mu        sync.Mutex
	lastState string
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend requests by operation and result code.",
		}, []string{"operation", "result"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_requests_in_flight",
			Help:      "Backend requests submitted but not finished.",
		}, []string{"operation"}),
		events: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Completions applied by the event pump.",
		}),
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "1 for the session's current connection state.",
		}, []string{"state"}),
	}
}

// RequestStarted counts a submitted request as in flight.
func (c *Collector) RequestStarted(op string) {
	c.inFlight.WithLabelValues(op).Inc()
}

// RequestFinished records a finished request.
func (c *Collector) RequestFinished(op, result string, elapsed time.Duration) {
	c.inFlight.WithLabelValues(op).Dec()
	c.requests.WithLabelValues(op, result).Inc()
	c.durations.WithLabelValues(op).Observe(elapsed.Seconds())
}

// EventsProcessed adds n applied completions.
func (c *Collector) EventsProcessed(n int) {
	c.events.Add(float64(n))
}

// ConnectionState marks state as the current one.
func (c *Collector) ConnectionState(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastState != "" {
		c.state.WithLabelValues(c.lastState).Set(0)
	}
	c.state.WithLabelValues(state).Set(1)
	c.lastState = state
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
