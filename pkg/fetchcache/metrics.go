package fetchcache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the cache counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	hits            prometheus.Counter
	misses          prometheus.Counter
	joins           prometheus.Counter
	transportCalls  prometheus.Counter
	transportErrors prometheus.Counter
	clears          prometheus.Counter
}

// NewMetrics builds the counters and registers them with reg when it is not
// nil. Counters already registered by another cache are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitecore",
			Subsystem: "fetchcache",
			Name:      name,
			Help:      help,
		})
		return register(reg, c)
	}
	return &Metrics{
		hits:            counter("hits_total", "Fetches served from the cache."),
		misses:          counter("misses_total", "Fetches that started a transport operation."),
		joins:           counter("joins_total", "Fetches that joined a pending operation."),
		transportCalls:  counter("transport_calls_total", "Transport invocations."),
		transportErrors: counter("transport_errors_total", "Transport invocations that reported an error."),
		clears:          counter("clears_total", "Cache clears."),
	}
}

func register(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) join() {
	if m != nil {
		m.joins.Inc()
	}
}

func (m *Metrics) transportCall() {
	if m != nil {
		m.transportCalls.Inc()
	}
}

func (m *Metrics) transportError() {
	if m != nil {
		m.transportErrors.Inc()
	}
}

func (m *Metrics) clear() {
	if m != nil {
		m.clears.Inc()
	}
}
