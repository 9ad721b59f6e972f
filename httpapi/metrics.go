package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"

	streamauth "github.com/atrisomya/streamauth"
	"github.com/atrisomya/streamauth/internal/metrics"
)

// engineCollector exposes the engine's counters as prometheus metrics.
// Counters are read via snapshot on every scrape.
type engineCollector struct {
	engine *streamauth.Engine
	descs  [metrics.MetricIDCount]*prometheus.Desc
}

func newEngineCollector(engine *streamauth.Engine) *engineCollector {
	c := &engineCollector{engine: engine}
	for id, name := range metrics.Names {
		c.descs[id] = prometheus.NewDesc(
			"streamauth_"+name+"_total",
			"Total number of "+name+" events.",
			nil, nil,
		)
	}
	return c
}

func (c *engineCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *engineCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.engine.Metrics()
	for id, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(snap.Counters[id]))
	}
}
