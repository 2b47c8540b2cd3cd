package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mintshield/mintshield/pkg/clock"
)

// Tags label a metric series. Series identity is name plus the sorted tag
// set, so {a:1,b:2} and {b:2,a:1} address the same series.
type Tags map[string]string

// HistogramStats are the derived statistics over a histogram's retained
// values, computed on read.
type HistogramStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// Snapshot is a fully independent copy of the collector's state. Readers
// never observe live structures mutated mid-read.
type Snapshot struct {
	Counters      map[string]int64          `json:"counters"`
	Gauges        map[string]float64        `json:"gauges"`
	Histograms    map[string]HistogramStats `json:"histograms"`
	UptimeSeconds float64                   `json:"uptime_seconds"`
}

// Config holds collector configuration
type Config struct {
	// MaxHistory bounds how many recent values each histogram retains;
	// the oldest value is dropped first once exceeded
	MaxHistory int
}

// DefaultConfig returns default collector configuration
func DefaultConfig() Config {
	return Config{MaxHistory: 1000}
}

// Collector is a thread-safe store of counters, gauges and histograms.
type Collector struct {
	mutex      sync.Mutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
	maxHistory int
	startTime  time.Time
	clock      clock.Clock
}

// NewCollector creates a metrics collector.
func NewCollector(config Config, clk clock.Clock) *Collector {
	if config.MaxHistory <= 0 {
		config.MaxHistory = 1000
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Collector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
		maxHistory: config.MaxHistory,
		startTime:  clk.Now(),
		clock:      clk,
	}
}

// IncrementCounter adds value to a counter metric.
func (c *Collector) IncrementCounter(name string, value int64, tags Tags) {
	key := makeKey(name, tags)

	c.mutex.Lock()
	c.counters[key] += value
	c.mutex.Unlock()
}

// Inc increments a counter by one.
func (c *Collector) Inc(name string, tags Tags) {
	c.IncrementCounter(name, 1, tags)
}

// SetGauge sets a gauge metric, last write wins.
func (c *Collector) SetGauge(name string, value float64, tags Tags) {
	key := makeKey(name, tags)

	c.mutex.Lock()
	c.gauges[key] = value
	c.mutex.Unlock()
}

// RecordHistogram appends value to a histogram metric. Retention is bounded
// to the configured history, oldest dropped first.
func (c *Collector) RecordHistogram(name string, value float64, tags Tags) {
	key := makeKey(name, tags)

	c.mutex.Lock()
	values := append(c.histograms[key], value)
	if len(values) > c.maxHistory {
		trimmed := make([]float64, c.maxHistory)
		copy(trimmed, values[len(values)-c.maxHistory:])
		values = trimmed
	}
	c.histograms[key] = values
	c.mutex.Unlock()
}

// RecordTiming records duration under name with a ".duration" suffix,
// in seconds.
func (c *Collector) RecordTiming(name string, duration time.Duration, tags Tags) {
	c.RecordHistogram(name+".duration", duration.Seconds(), tags)
}

// GetMetrics returns a snapshot of all metrics with derived histogram
// statistics and process uptime.
func (c *Collector) GetMetrics() Snapshot {
	now := c.clock.Now()

	c.mutex.Lock()
	counters := make(map[string]int64, len(c.counters))
	for key, value := range c.counters {
		counters[key] = value
	}

	gauges := make(map[string]float64, len(c.gauges))
	for key, value := range c.gauges {
		gauges[key] = value
	}

	histogramValues := make(map[string][]float64, len(c.histograms))
	for key, values := range c.histograms {
		copied := make([]float64, len(values))
		copy(copied, values)
		histogramValues[key] = copied
	}
	c.mutex.Unlock()

	// Stats are computed outside the lock so writers are not blocked by
	// sorting large histograms
	histograms := make(map[string]HistogramStats, len(histogramValues))
	for key, values := range histogramValues {
		histograms[key] = computeStats(values)
	}

	return Snapshot{
		Counters:      counters,
		Gauges:        gauges,
		Histograms:    histograms,
		UptimeSeconds: now.Sub(c.startTime).Seconds(),
	}
}

// makeKey folds sorted tags into the metric key string.
func makeKey(name string, tags Tags) string {
	if len(tags) == 0 {
		return name
	}

	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, tags[key]))
	}

	return fmt.Sprintf("%s[%s]", name, strings.Join(pairs, ","))
}

// computeStats derives statistics over a histogram's retained values.
// Percentile index is floor(count*percentile), clamped to the valid range.
func computeStats(values []float64) HistogramStats {
	count := len(values)
	if count == 0 {
		return HistogramStats{}
	}

	sorted := make([]float64, count)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return HistogramStats{
		Count:  count,
		Min:    sorted[0],
		Max:    sorted[count-1],
		Mean:   sum / float64(count),
		Median: sorted[count/2],
		P95:    sorted[percentileIndex(count, 0.95)],
		P99:    sorted[percentileIndex(count, 0.99)],
	}
}

func percentileIndex(count int, percentile float64) int {
	index := int(float64(count) * percentile)
	if index >= count {
		index = count - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}
