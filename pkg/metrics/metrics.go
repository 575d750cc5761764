// Package metrics exports negotiation and transport counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cbodonnell/wager/pkg/negotiation"
)

const namespace = "wager"

// Collector implements negotiation.Observer.
type Collector struct {
	sessionsCreated   prometheus.Counter
	sessionsFinished  *prometheus.CounterVec
	sessionsLive      prometheus.Gauge
	mutationsRejected *prometheus.CounterVec
	connections       prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func NewCollector(registerer prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Total sessions created.",
		}),
		sessionsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sessions",
				Name:      "finished_total",
				Help:      "Total sessions that reached a terminal state.",
			},
			[]string{"state", "reason"},
		),
		sessionsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "live",
			Help:      "Sessions that are not yet terminal.",
		}),
		mutationsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sessions",
				Name:      "mutations_rejected_total",
				Help:      "Party mutations rejected by validation.",
			},
			[]string{"code"},
		),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Open party websocket connections.",
		}),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	for _, collector := range []prometheus.Collector{
		c.sessionsCreated,
		c.sessionsFinished,
		c.sessionsLive,
		c.mutationsRejected,
		c.connections,
		c.httpRequests,
		c.httpDuration,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) SessionCreated() {
	c.sessionsCreated.Inc()
	c.sessionsLive.Inc()
}

func (c *Collector) SessionFinished(state negotiation.State, reason negotiation.Reason) {
	c.sessionsFinished.WithLabelValues(state.String(), string(reason)).Inc()
	c.sessionsLive.Dec()
}

func (c *Collector) MutationRejected(code negotiation.Code) {
	c.mutationsRejected.WithLabelValues(string(code)).Inc()
}

func (c *Collector) ConnectionOpened() {
	c.connections.Inc()
}

func (c *Collector) ConnectionClosed() {
	c.connections.Dec()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	c.httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	c.httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}
