package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mintshield/mintshield/pkg/logging"
)

// LoggingHandler delivers alerts to the application logger.
type LoggingHandler struct {
	logger *logging.Logger
}

// NewLoggingHandler creates a logging alert handler.
func NewLoggingHandler(logger *logging.Logger) *LoggingHandler {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &LoggingHandler{logger: logger}
}

// HandleAlert handles an alert by logging it.
func (h *LoggingHandler) HandleAlert(ctx context.Context, record Record) error {
	fields := []interface{}{
		"alert_id", record.ID,
		"alert", record.Name,
		"severity", string(record.Severity),
		"timestamp", record.Timestamp,
	}

	switch record.Severity {
	case SeverityCritical:
		h.logger.Error(record.Message, fields...)
	case SeverityWarning:
		h.logger.Warn(record.Message, fields...)
	default:
		h.logger.Info(record.Message, fields...)
	}

	return nil
}

// Name returns the name of the handler.
func (h *LoggingHandler) Name() string {
	return "logging"
}

// WebhookHandler POSTs fired alerts as JSON to a configured endpoint.
type WebhookHandler struct {
	url    string
	client *http.Client
}

// NewWebhookHandler creates a webhook alert handler.
func NewWebhookHandler(url string, timeout time.Duration) *WebhookHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookHandler{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// HandleAlert delivers the alert to the webhook endpoint.
func (h *WebhookHandler) HandleAlert(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Name returns the name of the handler.
func (h *WebhookHandler) Name() string {
	return "webhook"
}
