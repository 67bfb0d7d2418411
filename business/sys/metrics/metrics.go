// Package metrics constructs the metrics the node exposes to prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Source provides the values the gauges read on every scrape.
type Source interface {
	QueryChainLength() int
	QueryMempoolLength() int
}

// Metrics holds the collectors updated while the node serves requests.
type Metrics struct {
	Registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Panics   prometheus.Counter
}

// New constructs the metrics and registers them with a new registry. The
// chain gauges are read from the source when scraped.
func New(namespace string, src Source) *Metrics {
	reg := prometheus.NewRegistry()

	m := Metrics{
		Registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of requests handled.",
		}, []string{"method"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of requests that failed.",
		}, []string{"method"}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_total",
			Help:      "Number of handlers that panicked.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.Errors,
		m.Panics,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_length",
			Help:      "Number of blocks in the chain, genesis included.",
		}, func() float64 { return float64(src.QueryChainLength()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_length",
			Help:      "Number of transfers waiting to be mined.",
		}, func() float64 { return float64(src.QueryMempoolLength()) }),
	)

	return &m
}
