package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamilies(t *testing.T, registry *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	return names
}

func TestExporter_EmitsAllMetricKinds(t *testing.T) {
	collector, _ := newTestCollector(DefaultConfig())
	collector.Inc("mint.attempts", nil)
	collector.SetGauge("system.cpu.percent", 42, nil)
	collector.RecordHistogram("mint.gas_used", 21000, nil)

	registry := prometheus.NewRegistry()
	exporter := NewExporter(collector, "mintshield")
	exporter.Register(registry)

	names := gatherFamilies(t, registry)
	assert.True(t, names["mintshield_counter_total"])
	assert.True(t, names["mintshield_gauge"])
	assert.True(t, names["mintshield_histogram"])
	assert.True(t, names["mintshield_uptime_seconds"])
}

func TestExporter_CounterValue(t *testing.T) {
	collector, _ := newTestCollector(DefaultConfig())
	collector.IncrementCounter("mint.attempts", 7, nil)

	registry := prometheus.NewRegistry()
	NewExporter(collector, "mintshield").Register(registry)

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != "mintshield_counter_total" {
			continue
		}
		require.Len(t, family.GetMetric(), 1)
		metric := family.GetMetric()[0]
		assert.Equal(t, 7.0, metric.GetCounter().GetValue())
		require.Len(t, metric.GetLabel(), 1)
		assert.Equal(t, "key", metric.GetLabel()[0].GetName())
		assert.Equal(t, "mint.attempts", metric.GetLabel()[0].GetValue())
		return
	}
	t.Fatal("counter family not found")
}

func TestExporter_HistogramStats(t *testing.T) {
	collector, _ := newTestCollector(DefaultConfig())
	for i := 1; i <= 4; i++ {
		collector.RecordHistogram("mint.gas_used", float64(i), nil)
	}

	registry := prometheus.NewRegistry()
	NewExporter(collector, "mintshield").Register(registry)

	families, err := registry.Gather()
	require.NoError(t, err)

	stats := make(map[string]float64)
	for _, family := range families {
		if family.GetName() != "mintshield_histogram" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "stat" {
					stats[label.GetValue()] = metric.GetGauge().GetValue()
				}
			}
		}
	}

	assert.Equal(t, 4.0, stats["count"])
	assert.Equal(t, 1.0, stats["min"])
	assert.Equal(t, 4.0, stats["max"])
	assert.InDelta(t, 2.5, stats["mean"], 0.0001)
}

func TestExporter_UptimeTracksClock(t *testing.T) {
	collector, fake := newTestCollector(DefaultConfig())
	fake.Advance(30 * time.Second)

	registry := prometheus.NewRegistry()
	NewExporter(collector, "mintshield").Register(registry)

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() == "mintshield_uptime_seconds" {
			assert.InDelta(t, 30.0, family.GetMetric()[0].GetGauge().GetValue(), 0.0001)
			return
		}
	}
	t.Fatal("uptime family not found")
}
