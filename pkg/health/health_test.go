package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintshield/mintshield/pkg/logging"
)

type staticChecker struct {
	status Status
}

func (c *staticChecker) Check(ctx context.Context) *Check {
	return &Check{Status: c.status, Timestamp: time.Now()}
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(nil)
	require.NoError(t, err)
	logger.SetOutput(io.Discard)
	return logger
}

func TestService_AllHealthy(t *testing.T) {
	service := NewService(time.Second, testLogger(t))
	service.Register("rpc", &staticChecker{status: StatusHealthy})
	service.Register("ipfs", &staticChecker{status: StatusHealthy})

	response := service.CheckAll(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	require.Len(t, response.Checks, 2)
	assert.Equal(t, "rpc", response.Checks["rpc"].Name)
}

func TestService_OneUnhealthyDegradesOverall(t *testing.T) {
	service := NewService(time.Second, testLogger(t))
	service.Register("rpc", &staticChecker{status: StatusHealthy})
	service.Register("ipfs", &staticChecker{status: StatusUnhealthy})

	response := service.CheckAll(context.Background())

	assert.Equal(t, StatusUnhealthy, response.Status)
	assert.Equal(t, StatusHealthy, response.Checks["rpc"].Status)
	assert.Equal(t, StatusUnhealthy, response.Checks["ipfs"].Status)
}

func TestService_NoCheckersIsHealthy(t *testing.T) {
	service := NewService(time.Second, testLogger(t))

	response := service.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, response.Status)
	assert.Empty(t, response.Checks)
}

func TestService_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := NewService(time.Second, testLogger(t))
	service.Register("rpc", &staticChecker{status: StatusUnhealthy})

	router := gin.New()
	router.GET("/health", service.Handler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, StatusUnhealthy, response.Status)
}

func TestService_ReadinessHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := NewService(time.Second, testLogger(t))
	service.Register("rpc", &staticChecker{status: StatusHealthy})

	router := gin.New()
	router.GET("/health/ready", service.ReadinessHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestService_LivenessHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := NewService(time.Second, testLogger(t))

	router := gin.New()
	router.GET("/health/live", service.LivenessHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestHTTPChecker_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL, time.Second)
	check := checker.Check(context.Background())

	assert.Equal(t, StatusHealthy, check.Status)
	assert.Contains(t, check.Message, "200")
}

func TestHTTPChecker_AcceptableStatusList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	// An authenticated gateway answering 401 still proves reachability
	checker := NewHTTPChecker(server.URL, time.Second, http.StatusOK, http.StatusUnauthorized)
	check := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)

	strict := NewHTTPChecker(server.URL, time.Second)
	check = strict.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Contains(t, check.Error, "401")
}

func TestHTTPChecker_Unreachable(t *testing.T) {
	checker := NewHTTPChecker("http://127.0.0.1:1/health", time.Second)

	check := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Error)
}
