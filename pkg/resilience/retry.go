package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/errors"
	"github.com/mintshield/mintshield/pkg/logging"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// operation runs at most MaxRetries+1 times
	MaxRetries int
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration
	// MaxDelay caps the delay between retries
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay after each retry
	BackoffFactor float64
	// Jitter adds randomness to delay to avoid thundering herd
	Jitter bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retrier wraps operations against one external component with classified
// retry and exponential backoff. Terminal failures are reported to the
// error recorder either way.
type Retrier struct {
	component  string
	config     RetryConfig
	classifier *errors.Classifier
	recorder   *Recorder
	clock      clock.Clock
	logger     *logging.Logger
}

// NewRetrier creates a retrier for the named component.
func NewRetrier(component string, config RetryConfig, classifier *errors.Classifier, recorder *Recorder, clk clock.Clock, logger *logging.Logger) *Retrier {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 1 * time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.BackoffFactor <= 0 {
		config.BackoffFactor = 2.0
	}
	if classifier == nil {
		classifier = errors.DefaultClassifier()
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Retrier{
		component:  component,
		config:     config,
		classifier: classifier,
		recorder:   recorder,
		clock:      clk,
		logger:     logger,
	}
}

// Execute runs operation with retry logic. Retryable failures back off and
// retry until the budget is spent; non-retryable failures surface unchanged
// after a single attempt.
func (r *Retrier) Execute(ctx context.Context, operation func(context.Context) error) error {
	delay := r.config.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return r.abortForContext(ctx)
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("Operation succeeded after retry",
					"component", r.component,
					"attempt", attempt+1,
				)
			}
			return nil
		}

		lastErr = err
		class, tag := r.classifier.Classify(err)

		if class == errors.NonRetryable {
			r.logger.Debug("Error is not retryable, stopping",
				"component", r.component,
				"error", err.Error(),
				"error_type", tag,
			)
			r.record(tag)
			return err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		r.logger.LogRetryEvent(ctx, r.component, attempt+1, delay, err)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		// The backoff wait holds no locks and respects the caller's deadline
		select {
		case <-ctx.Done():
			return r.abortForContext(ctx)
		case <-r.clock.After(r.withJitter(delay)):
		}

		delay = time.Duration(float64(delay) * r.config.BackoffFactor)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}

	_, tag := r.classifier.Classify(lastErr)
	r.record(tag)

	r.logger.Error("Operation failed after all retry attempts",
		"component", r.component,
		"error", lastErr.Error(),
		"attempts", r.config.MaxRetries+1,
	)

	return errors.NewRetryExhaustedError(r.component, r.config.MaxRetries+1, lastErr)
}

// ExecuteWithResult runs an operation that returns a value with retry logic.
func (r *Retrier) ExecuteWithResult(ctx context.Context, operation func(context.Context) (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := r.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	return result, err
}

func (r *Retrier) abortForContext(ctx context.Context) error {
	r.record("timeout")
	return errors.NewTimeoutError(r.component).WithCause(ctx.Err())
}

func (r *Retrier) record(tag string) {
	if r.recorder != nil {
		r.recorder.Record(r.component, tag)
	}
}

func (r *Retrier) withJitter(delay time.Duration) time.Duration {
	if !r.config.Jitter {
		return delay
	}
	// Up to 10% extra, never past the configured cap
	jittered := delay + time.Duration(rand.Float64()*0.1*float64(delay))
	if jittered > r.config.MaxDelay {
		jittered = r.config.MaxDelay
	}
	return jittered
}

// ExecuteWithRetry is a convenience wrapper for one-off calls.
func ExecuteWithRetry(ctx context.Context, component string, config RetryConfig, recorder *Recorder, operation func(context.Context) error) error {
	retrier := NewRetrier(component, config, nil, recorder, nil, nil)
	return retrier.Execute(ctx, operation)
}
