package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Exporter bridges the collector into a Prometheus registry. Each scrape
// takes a snapshot and emits const metrics, so the collector stays the
// single source of truth.
type Exporter struct {
	collector *Collector

	counterDesc   *prometheus.Desc
	gaugeDesc     *prometheus.Desc
	histogramDesc *prometheus.Desc
	uptimeDesc    *prometheus.Desc
}

// NewExporter creates a Prometheus bridge for the collector.
func NewExporter(collector *Collector, namespace string) *Exporter {
	if namespace == "" {
		namespace = "mintshield"
	}

	return &Exporter{
		collector: collector,
		counterDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "counter_total"),
			"Counter metrics keyed by canonical series name",
			[]string{"key"}, nil,
		),
		gaugeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "gauge"),
			"Gauge metrics keyed by canonical series name",
			[]string{"key"}, nil,
		),
		histogramDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "histogram"),
			"Derived histogram statistics keyed by canonical series name",
			[]string{"key", "stat"}, nil,
		),
		uptimeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "uptime_seconds"),
			"Process uptime in seconds",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector. Descriptors depend on the live
// series set, so the exporter registers as an unchecked collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	snapshot := e.collector.GetMetrics()

	for key, value := range snapshot.Counters {
		ch <- prometheus.MustNewConstMetric(e.counterDesc, prometheus.CounterValue, float64(value), key)
	}

	for key, value := range snapshot.Gauges {
		ch <- prometheus.MustNewConstMetric(e.gaugeDesc, prometheus.GaugeValue, value, key)
	}

	for key, stats := range snapshot.Histograms {
		ch <- prometheus.MustNewConstMetric(e.histogramDesc, prometheus.GaugeValue, float64(stats.Count), key, "count")
		ch <- prometheus.MustNewConstMetric(e.histogramDesc, prometheus.GaugeValue, stats.Min, key, "min")
		ch <- prometheus.MustNewConstMetric(e.histogramDesc, prometheus.GaugeValue, stats.Max, key, "max")
		ch <- prometheus.MustNewConstMetric(e.histogramDesc, prometheus.GaugeValue, stats.Mean, key, "mean")
		ch <- prometheus.MustNewConstMetric(e.histogramDesc, prometheus.GaugeValue, stats.Median, key, "median")
		ch <- prometheus.MustNewConstMetric(e.histogramDesc, prometheus.GaugeValue, stats.P95, key, "p95")
		ch <- prometheus.MustNewConstMetric(e.histogramDesc, prometheus.GaugeValue, stats.P99, key, "p99")
	}

	ch <- prometheus.MustNewConstMetric(e.uptimeDesc, prometheus.GaugeValue, snapshot.UptimeSeconds)
}

// Register registers the exporter with a Prometheus registry.
func (e *Exporter) Register(registry *prometheus.Registry) {
	registry.MustRegister(e)
}
