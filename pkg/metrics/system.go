package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mintshield/mintshield/pkg/logging"
)

// SystemPoller periodically samples host and process resource usage into
// the collector. It is an optional caller-driven loop, started and stopped
// by the composition root.
type SystemPoller struct {
	collector *Collector
	interval  time.Duration
	diskPath  string
	stopCh    chan struct{}
	logger    *logging.Logger
}

// NewSystemPoller creates a system metrics poller.
func NewSystemPoller(collector *Collector, interval time.Duration, logger *logging.Logger) *SystemPoller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &SystemPoller{
		collector: collector,
		interval:  interval,
		diskPath:  "/",
		stopCh:    make(chan struct{}),
		logger:    logger,
	}
}

// Start runs the polling loop until the context is cancelled or Stop is
// called.
func (p *SystemPoller) Start(ctx context.Context) {
	p.logger.Info("System metrics poller started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.collect()
		}
	}
}

// Stop stops the polling loop.
func (p *SystemPoller) Stop() {
	close(p.stopCh)
}

func (p *SystemPoller) collect() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		p.collector.SetGauge("system.cpu.percent", percents[0], nil)
	} else if err != nil {
		p.logger.Debug("CPU sample failed", "error", err.Error())
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		p.collector.SetGauge("system.memory.percent", vm.UsedPercent, nil)
		p.collector.SetGauge("system.memory.used_bytes", float64(vm.Used), nil)
		p.collector.SetGauge("system.memory.available_bytes", float64(vm.Available), nil)
	} else {
		p.logger.Debug("Memory sample failed", "error", err.Error())
	}

	if usage, err := disk.Usage(p.diskPath); err == nil {
		p.collector.SetGauge("system.disk.percent", usage.UsedPercent, nil)
		p.collector.SetGauge("system.disk.used_bytes", float64(usage.Used), nil)
		p.collector.SetGauge("system.disk.free_bytes", float64(usage.Free), nil)
	} else {
		p.logger.Debug("Disk sample failed", "error", err.Error())
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	p.collector.SetGauge("process.memory.heap_bytes", float64(memStats.HeapAlloc), nil)
	p.collector.SetGauge("process.goroutines", float64(runtime.NumGoroutine()), nil)
}
