package resilience

import (
	"sync"
	"time"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/errors"
	"github.com/mintshield/mintshield/pkg/logging"
)

// BreakerState is the per-component failure window. State resets once the
// window elapses with no further failures; there is no half-open probe.
type BreakerState struct {
	Component    string    `json:"component"`
	FailureCount int       `json:"failure_count"`
	LastFailure  time.Time `json:"last_failure"`
	IsOpen       bool      `json:"is_open"`
}

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	// Threshold is the failure count at which the breaker opens
	Threshold int
	// Window is how long failures stay relevant; the breaker self-heals
	// once this much time passes after the last failure
	Window time.Duration
}

// DefaultBreakerConfig returns a default breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Threshold: 5,
		Window:    5 * time.Minute,
	}
}

// BreakerRegistry tracks one sliding-window circuit breaker per component.
// It does not gate calls itself; callers check IsOpen (or Allow) before
// issuing a request and report failures via RecordFailure.
type BreakerRegistry struct {
	mutex    sync.Mutex
	breakers map[string]*BreakerState
	config   BreakerConfig
	clock    clock.Clock
	logger   *logging.Logger
}

// NewBreakerRegistry creates a breaker registry with the given configuration.
func NewBreakerRegistry(config BreakerConfig, clk clock.Clock, logger *logging.Logger) *BreakerRegistry {
	if config.Threshold <= 0 {
		config.Threshold = 5
	}
	if config.Window <= 0 {
		config.Window = 5 * time.Minute
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &BreakerRegistry{
		breakers: make(map[string]*BreakerState),
		config:   config,
		clock:    clk,
		logger:   logger,
	}
}

// RecordFailure registers a failure for component, opening the breaker once
// the threshold is reached within the window.
func (r *BreakerRegistry) RecordFailure(component string) {
	now := r.clock.Now()

	r.mutex.Lock()
	breaker, ok := r.breakers[component]
	if !ok {
		breaker = &BreakerState{Component: component}
		r.breakers[component] = breaker
	}

	// Failures outside the window no longer count
	if !breaker.LastFailure.IsZero() && now.Sub(breaker.LastFailure) > r.config.Window {
		breaker.FailureCount = 0
	}

	breaker.FailureCount++
	breaker.LastFailure = now
	wasOpen := breaker.IsOpen
	breaker.IsOpen = breaker.FailureCount >= r.config.Threshold
	count := breaker.FailureCount
	opened := breaker.IsOpen && !wasOpen
	r.mutex.Unlock()

	if opened {
		r.logger.Error("Circuit breaker opened",
			"component", component,
			"failure_count", count,
			"threshold", r.config.Threshold,
		)
	}
}

// IsOpen reports whether component's breaker is open. If the window has
// expired since the last failure the breaker resets and reports closed.
func (r *BreakerRegistry) IsOpen(component string) bool {
	now := r.clock.Now()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	breaker, ok := r.breakers[component]
	if !ok {
		return false
	}

	if now.Sub(breaker.LastFailure) > r.config.Window {
		if breaker.IsOpen {
			r.logger.Info("Circuit breaker closed",
				"component", component,
				"idle", now.Sub(breaker.LastFailure).String(),
			)
		}
		breaker.FailureCount = 0
		breaker.IsOpen = false
		return false
	}

	return breaker.FailureCount >= r.config.Threshold
}

// Allow returns a CircuitOpenError when component's breaker is open, nil
// otherwise. Convenience for callers that propagate errors.
func (r *BreakerRegistry) Allow(component string) error {
	if r.IsOpen(component) {
		return errors.NewCircuitOpenError(component)
	}
	return nil
}

// Snapshot returns a copy of every breaker's current state.
func (r *BreakerRegistry) Snapshot() map[string]BreakerState {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	snapshot := make(map[string]BreakerState, len(r.breakers))
	for component, breaker := range r.breakers {
		snapshot[component] = *breaker
	}
	return snapshot
}

// IsCircuitOpenError checks if an error is a circuit-open refusal
func IsCircuitOpenError(err error) bool {
	return errors.IsType(err, errors.ErrorTypeCircuitOpen)
}
