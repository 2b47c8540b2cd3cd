package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Level:       "info",
				Format:      "json",
				Output:      "stdout",
				ServiceName: "test-service",
				Version:     "1.0.0",
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			config: &Config{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name: "invalid format",
			config: &Config{
				Level:  "info",
				Format: "invalid",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name:    "nil config uses defaults",
			config:  nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, logger)
			}
		})
	}
}

func newBufferedLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()

	logger, err := NewLogger(&Config{
		Level:       "debug",
		Format:      "json",
		Output:      "stdout",
		ServiceName: "test-service",
		Version:     "1.0.0",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	return logger, &buf
}

func parseLogEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	ctx := WithCorrelationID(context.Background(), "test-correlation-id")
	ctx = WithRequestID(ctx, "test-request-id")

	logger.WithContext(ctx).Info("test message")

	entry := parseLogEntry(t, buf)
	assert.Equal(t, "test-correlation-id", entry["correlation_id"])
	assert.Equal(t, "test-request-id", entry["request_id"])
	assert.Equal(t, "test-service", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Equal(t, "test message", entry["message"])
}

func TestLogger_KeyValuePairs(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.Info("retrying operation", "component", "web3", "attempt", 2)

	entry := parseLogEntry(t, buf)
	assert.Equal(t, "retrying operation", entry["message"])
	assert.Equal(t, "web3", entry["component"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestLogger_DanglingKeyIsDropped(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.Info("message", "component", "web3", "orphan")

	entry := parseLogEntry(t, buf)
	assert.Equal(t, "web3", entry["component"])
	assert.NotContains(t, entry, "orphan")
}

func TestLogger_LogRetryEvent(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.LogRetryEvent(context.Background(), "web3", 2, 4*time.Second, errors.New("nonce too low"))

	entry := parseLogEntry(t, buf)
	assert.Equal(t, "web3", entry["component"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, float64(4000), entry["delay_ms"])
	assert.Equal(t, "nonce too low", entry["error"])
	assert.Equal(t, "warning", entry["level"])
}

func TestLogger_LogBreakerEvent(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.LogBreakerEvent(context.Background(), "ipfs", true, 5)

	entry := parseLogEntry(t, buf)
	assert.Equal(t, "ipfs", entry["component"])
	assert.Equal(t, true, entry["open"])
	assert.Equal(t, float64(5), entry["failure_count"])
	assert.Equal(t, "error", entry["level"])
}

func TestLogger_WithError(t *testing.T) {
	logger, buf := newBufferedLogger(t)

	logger.WithError(errors.New("boom")).Error("operation failed")

	entry := parseLogEntry(t, buf)
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["error_type"])
}

func TestNewCorrelationID(t *testing.T) {
	first := NewCorrelationID()
	second := NewCorrelationID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestGetCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))

	ctx := WithCorrelationID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", GetCorrelationID(ctx))
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	defer SetGlobalLogger(original)

	require.NotNil(t, original)

	replacement, err := NewLogger(nil)
	require.NoError(t, err)

	SetGlobalLogger(replacement)
	assert.Same(t, replacement, GetLogger())
}
