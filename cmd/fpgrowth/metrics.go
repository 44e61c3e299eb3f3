package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"fpm.lopezb.com/internal/fpm/mining"
)

const metricsNamespace = "fpgrowth"

// Metrics holds the statistics of one run in a private registry. A batch run
// has no scrape endpoint, so the registry is dumped to a textfile at the end.
type Metrics struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec // by mode and result
	StageSeconds  *prometheus.GaugeVec   // by stage
	Transactions  prometheus.Gauge
	FrequentItems prometheus.Gauge
	TreeNodes     prometheus.Gauge
	Itemsets      prometheus.Gauge
	DBound        prometheus.Gauge
	SampleSize    prometheus.Gauge
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help})
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Mining runs by mode and result.",
		}, []string{"mode", "result"}),
		StageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage of the last run.",
		}, []string{"stage"}),
		Transactions:  gauge("transactions", "Transactions read from the input."),
		FrequentItems: gauge("frequent_items", "Frequent items in the mined database."),
		TreeNodes:     gauge("tree_nodes", "Nodes of the FP-tree, root excluded."),
		Itemsets:      gauge("itemsets", "Frequent itemsets found."),
		DBound:        gauge("d_bound", "d-bound of the input (approximate runs)."),
		SampleSize:    gauge("sample_size", "Transactions sampled (approximate runs)."),
	}

	m.registry.MustRegister(
		m.Runs, m.StageSeconds,
		m.Transactions, m.FrequentItems, m.TreeNodes, m.Itemsets,
		m.DBound, m.SampleSize,
	)
	return m
}

// Observe records a finished run.
func (m *Metrics) Observe(mode string, o *mining.Outcome) {
	m.Runs.WithLabelValues(mode, "success").Inc()
	m.Transactions.Set(float64(o.Transactions))
	m.FrequentItems.Set(float64(o.FrequentItems))
	m.TreeNodes.Set(float64(o.TreeNodes))
	m.Itemsets.Set(float64(o.Itemsets.Len()))

	m.StageSeconds.WithLabelValues("build").Set(o.Timings.Build.Seconds())
	m.StageSeconds.WithLabelValues("mine").Set(o.Timings.Mine.Seconds())
	m.StageSeconds.WithLabelValues("total").Set(o.Timings.Total.Seconds())

	if s := o.Sample; s != nil {
		m.StageSeconds.WithLabelValues("d_bound").Set(o.Timings.DBound.Seconds())
		m.DBound.Set(float64(s.DBound))
		m.SampleSize.Set(float64(s.SampleSize))
	}
}

// Fail records a failed run.
func (m *Metrics) Fail(mode string) {
	m.Runs.WithLabelValues(mode, "failure").Inc()
}

// WriteFile dumps the registry to path in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
