package alerting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/logging"
	"github.com/mintshield/mintshield/pkg/metrics"
)

// Severity represents alert severity levels
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rule is a predicate over the current metrics snapshot. A true predicate
// fires the rule's alert on every check; alerting is at-least-once, not
// edge-triggered.
type Rule struct {
	Name      string
	Condition func(metrics.Snapshot) bool
	Message   string
	Severity  Severity
}

// Record is one fired alert.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives fired alerts for delivery (log line, webhook, pager).
type Handler interface {
	HandleAlert(ctx context.Context, record Record) error
	Name() string
}

// SnapshotFunc supplies the metrics snapshot rules are evaluated against.
type SnapshotFunc func() metrics.Snapshot

// Manager evaluates predicate rules against metrics snapshots and keeps an
// append-only log of fired alerts.
type Manager struct {
	mutex    sync.Mutex
	rules    []Rule
	alerts   []Record
	handlers []Handler
	snapshot SnapshotFunc
	clock    clock.Clock
	logger   *logging.Logger
}

// NewManager creates an alert manager reading snapshots from snapshot.
func NewManager(snapshot SnapshotFunc, clk clock.Clock, logger *logging.Logger) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Manager{
		snapshot: snapshot,
		clock:    clk,
		logger:   logger,
	}
}

// AddRule registers an alert rule.
func (m *Manager) AddRule(name string, condition func(metrics.Snapshot) bool, message string, severity Severity) {
	m.mutex.Lock()
	m.rules = append(m.rules, Rule{
		Name:      name,
		Condition: condition,
		Message:   message,
		Severity:  severity,
	})
	m.mutex.Unlock()
}

// AddHandler registers an alert handler.
func (m *Manager) AddHandler(handler Handler) {
	m.mutex.Lock()
	m.handlers = append(m.handlers, handler)
	m.mutex.Unlock()

	m.logger.Info("Alert handler added", "handler", handler.Name())
}

// CheckAlerts evaluates every rule against the current snapshot. A rule
// whose predicate panics is logged and skipped so one bad rule cannot block
// the others. Persistently true conditions fire on every check.
func (m *Manager) CheckAlerts(ctx context.Context) {
	snapshot := m.snapshot()

	m.mutex.Lock()
	rules := make([]Rule, len(m.rules))
	copy(rules, m.rules)
	m.mutex.Unlock()

	for _, rule := range rules {
		fired, err := m.evaluate(rule, snapshot)
		if err != nil {
			m.logger.Error("Alert rule evaluation failed",
				"rule", rule.Name,
				"error", err.Error(),
			)
			continue
		}
		if fired {
			m.trigger(ctx, rule)
		}
	}
}

// evaluate runs one predicate, converting a panic into an error.
func (m *Manager) evaluate(rule Rule, snapshot metrics.Snapshot) (fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.Name, r)
		}
	}()

	if rule.Condition == nil {
		return false, fmt.Errorf("rule %s has no condition", rule.Name)
	}

	return rule.Condition(snapshot), nil
}

func (m *Manager) trigger(ctx context.Context, rule Rule) {
	record := Record{
		ID:        uuid.New().String(),
		Name:      rule.Name,
		Message:   rule.Message,
		Severity:  rule.Severity,
		Timestamp: m.clock.Now(),
	}

	m.mutex.Lock()
	m.alerts = append(m.alerts, record)
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mutex.Unlock()

	entry := m.logger.WithComponent("alerting")
	if rule.Severity == SeverityCritical {
		entry.Errorf("ALERT: %s - %s", rule.Name, rule.Message)
	} else {
		entry.Warnf("ALERT: %s - %s", rule.Name, rule.Message)
	}

	for _, handler := range handlers {
		if err := handler.HandleAlert(ctx, record); err != nil {
			m.logger.Error("Alert handler failed",
				"handler", handler.Name(),
				"alert", record.Name,
				"error", err.Error(),
			)
		}
	}
}

// ActiveAlerts returns the most recent limit alert records, newest last.
func (m *Manager) ActiveAlerts(limit int) []Record {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if limit <= 0 || limit > len(m.alerts) {
		limit = len(m.alerts)
	}

	out := make([]Record, limit)
	copy(out, m.alerts[len(m.alerts)-limit:])
	return out
}

// Loop runs CheckAlerts on a ticker until the context is cancelled.
func (m *Manager) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	m.logger.Info("Alert check loop started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Alert check loop stopped")
			return
		case <-ticker.C:
			m.CheckAlerts(ctx)
		}
	}
}

// RegisterDefaultRules installs the stock rules: resource pressure, error
// volume and slow API responses.
func (m *Manager) RegisterDefaultRules() {
	m.AddRule("high_cpu_usage",
		func(s metrics.Snapshot) bool {
			return s.Gauges["system.cpu.percent"] > 80
		},
		"CPU usage is above 80%", SeverityWarning)

	m.AddRule("high_memory_usage",
		func(s metrics.Snapshot) bool {
			return s.Gauges["system.memory.percent"] > 85
		},
		"Memory usage is above 85%", SeverityCritical)

	m.AddRule("high_error_count",
		func(s metrics.Snapshot) bool {
			var total int64
			for key, count := range s.Counters {
				if strings.HasPrefix(key, "api.error") {
					total += count
				}
			}
			return total > 10
		},
		"API error count is too high", SeverityCritical)

	m.AddRule("slow_response_time",
		func(s metrics.Snapshot) bool {
			for key, stats := range s.Histograms {
				if strings.HasPrefix(key, "api.request.duration") && stats.P95 > 5.0 {
					return true
				}
			}
			return false
		},
		"API response time p95 is above 5 seconds", SeverityWarning)
}
