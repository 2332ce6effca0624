package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusFactory implements MetricFactory on a Prometheus registerer.
// Metric names are normalized to Prometheus conventions: dots become
// underscores ("ledger.loan.disbursed" registers as "ledger_loan_disbursed").
type PrometheusFactory struct {
	mu         sync.Mutex
	reg        prometheus.Registerer
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusFactory creates a factory registering metrics on reg.
// Pass prometheus.DefaultRegisterer for the process-global registry.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	return &PrometheusFactory{
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter returns the counter registered under name, creating it on first use.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}

	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: promName(name),
		Help: name,
	})
	f.reg.MustRegister(c)
	f.counters[name] = c
	return c
}

// Histogram returns the histogram registered under name, creating it on
// first use with the default buckets.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}

	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    promName(name),
		Help:    name,
		Buckets: prometheus.DefBuckets,
	})
	f.reg.MustRegister(h)
	f.histograms[name] = h
	return h
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
