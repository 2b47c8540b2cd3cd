package resilience

import (
	"sync"
	"time"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/logging"
)

// ErrorRecord tracks occurrences of one (component, error_type) pair.
// Counts are monotonic for the process lifetime.
type ErrorRecord struct {
	Component       string    `json:"component"`
	ErrorType       string    `json:"error_type"`
	Count           int64     `json:"count"`
	FirstOccurrence time.Time `json:"first_occurrence"`
	LastOccurrence  time.Time `json:"last_occurrence"`
}

// Recorder keeps process-wide counters of classified failures, keyed by
// "component.error_type". It feeds statistics and alerting.
type Recorder struct {
	mutex   sync.Mutex
	records map[string]*ErrorRecord
	clock   clock.Clock
	logger  *logging.Logger
}

// NewRecorder creates an error recorder.
func NewRecorder(clk clock.Clock, logger *logging.Logger) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Recorder{
		records: make(map[string]*ErrorRecord),
		clock:   clk,
		logger:  logger,
	}
}

// Record registers one occurrence of errorType raised by component.
func (r *Recorder) Record(component, errorType string) {
	now := r.clock.Now()
	key := component + "." + errorType

	r.mutex.Lock()
	record, ok := r.records[key]
	if !ok {
		record = &ErrorRecord{
			Component:       component,
			ErrorType:       errorType,
			FirstOccurrence: now,
		}
		r.records[key] = record
	}
	record.Count++
	record.LastOccurrence = now
	count := record.Count
	r.mutex.Unlock()

	r.logger.Error("Error recorded",
		"component", component,
		"error_type", errorType,
		"count", count,
	)
}

// Stats returns a copy of all error records keyed by "component.error_type".
func (r *Recorder) Stats() map[string]ErrorRecord {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stats := make(map[string]ErrorRecord, len(r.records))
	for key, record := range r.records {
		stats[key] = *record
	}
	return stats
}
