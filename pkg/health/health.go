package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mintshield/mintshield/pkg/logging"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Check represents a health check result
type Check struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Response represents the overall health response
type Response struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Duration  time.Duration     `json:"duration"`
	Checks    map[string]*Check `json:"checks"`
}

// Checker interface for health checks
type Checker interface {
	Check(ctx context.Context) *Check
}

// Service aggregates named health checkers
type Service struct {
	checkers map[string]Checker
	timeout  time.Duration
	logger   *logging.Logger
	mutex    sync.RWMutex
}

// NewService creates a health check service
func NewService(timeout time.Duration, logger *logging.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Service{
		checkers: make(map[string]Checker),
		timeout:  timeout,
		logger:   logger,
	}
}

// Register adds a named health checker
func (s *Service) Register(name string, checker Checker) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.checkers[name] = checker
}

// CheckAll runs every registered checker and aggregates the results
func (s *Service) CheckAll(ctx context.Context) *Response {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mutex.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	s.mutex.RUnlock()

	checks := make(map[string]*Check, len(checkers))
	overall := StatusHealthy

	var wg sync.WaitGroup
	var resultMutex sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			check := checker.Check(ctx)
			check.Name = name

			resultMutex.Lock()
			checks[name] = check
			if check.Status != StatusHealthy {
				overall = StatusUnhealthy
			}
			resultMutex.Unlock()
		}(name, checker)
	}
	wg.Wait()

	response := &Response{
		Status:    overall,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    checks,
	}

	if overall != StatusHealthy {
		s.logger.Warn("Health check reported unhealthy components",
			"status", string(overall),
			"checks", len(checks),
		)
	}

	return response
}

// Handler returns a gin handler serving the aggregated health response
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := s.CheckAll(c.Request.Context())

		status := http.StatusOK
		if response.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, response)
	}
}

// ReadinessHandler serves a readiness probe backed by the registered
// checkers. Only the overall verdict is reported.
func (s *Service) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := s.CheckAll(c.Request.Context())

		status := http.StatusOK
		if response.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    response.Status,
			"timestamp": response.Timestamp,
		})
	}
}

// LivenessHandler serves a trivial liveness probe
func (s *Service) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

// HTTPChecker probes an external collaborator over HTTP. A status in
// acceptable counts as healthy; 401 is acceptable for authenticated
// services where reachability is all that matters.
type HTTPChecker struct {
	URL        string
	Acceptable []int
	client     *http.Client
}

// NewHTTPChecker creates an HTTP health checker for url.
func NewHTTPChecker(url string, timeout time.Duration, acceptable ...int) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if len(acceptable) == 0 {
		acceptable = []int{http.StatusOK}
	}
	return &HTTPChecker{
		URL:        url,
		Acceptable: acceptable,
		client:     &http.Client{Timeout: timeout},
	}
}

// Check performs the HTTP probe.
func (h *HTTPChecker) Check(ctx context.Context) *Check {
	start := time.Now()
	check := &Check{
		Status:    StatusUnknown,
		Timestamp: start,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		check.Status = StatusUnhealthy
		check.Error = err.Error()
		check.Duration = time.Since(start)
		return check
	}

	resp, err := h.client.Do(req)
	if err != nil {
		check.Status = StatusUnhealthy
		check.Error = err.Error()
		check.Duration = time.Since(start)
		return check
	}
	defer resp.Body.Close()

	check.Duration = time.Since(start)
	for _, code := range h.Acceptable {
		if resp.StatusCode == code {
			check.Status = StatusHealthy
			check.Message = fmt.Sprintf("responded with %d", resp.StatusCode)
			return check
		}
	}

	check.Status = StatusUnhealthy
	check.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	return check
}
