// Package feedback records human-provided fraud labels for retraining.
//
// The store is an append-only JSONL file, one record per line. Records are
// never edited or deleted; the offline trainer is the only consumer.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/mbd888/fraudwatch/internal/metrics"
)

// Record is one ground-truth label: 1 means confirmed fraud, 0 legitimate.
type Record struct {
	TxID       string    `json:"txId"`
	Label      int       `json:"label"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Recorder appends labels to a durable log file, creating it on first use.
// Safe for concurrent use; each append is a single atomic line.
type Recorder struct {
	path string
	mu   sync.Mutex
}

// NewRecorder creates a recorder writing to the given file path.
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Path returns the log file location.
func (r *Recorder) Path() string { return r.path }

// Record appends one label. label must be 0 or 1.
func (r *Recorder) Record(txID string, label int) error {
	if txID == "" {
		return fmt.Errorf("feedback: transaction id is required")
	}
	if label != 0 && label != 1 {
		return fmt.Errorf("feedback: label must be 0 or 1, got %d", label)
	}

	line, err := json.Marshal(Record{
		TxID:       txID,
		Label:      label,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("feedback: encode record: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("feedback: create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("feedback: open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("feedback: append record: %w", err)
	}

	metrics.FeedbackRecords.WithLabelValues(strconv.Itoa(label)).Inc()
	return nil
}
