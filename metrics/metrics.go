// Package metrics exposes request lifecycle counters to Prometheus.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"makerchecker-backend/events"
)

type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	expired  prometheus.Counter
}

// New registers the collectors on a private registry together with the Go
// and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "makerchecker",
			Name:      "requests_total",
			Help:      "Total number of request lifecycle events.",
		}, []string{"event"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "makerchecker",
			Name:      "requests_expired_total",
			Help:      "Total number of pending requests expired by the sweep.",
		}),
	}
	c.registry.MustRegister(
		c.requests,
		c.expired,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Subscribe counts every lifecycle event published on bus.
func (c *Collector) Subscribe(bus events.Bus) {
	for _, kind := range []events.Kind{events.Initiated, events.Approved, events.Rejected, events.Failed} {
		counter := c.requests.WithLabelValues(string(kind))
		bus.Listen(kind, func(events.Event) { counter.Inc() })
	}
}

func (c *Collector) ObserveExpired(n int64) {
	if n > 0 {
		c.expired.Add(float64(n))
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
