// Package scoring implements fraud risk scoring for payment transactions.
//
// Each transaction is reduced to a feature vector, scored by a blended
// statistical model (supervised classifier probability plus an optional
// anomaly-detector score), and mapped to an ordinal severity band. Scores
// range from 0.0 (safe) to 1.0 (certain fraud). Assessments at or above the
// high band trigger a best-effort alert; nothing in the live path is allowed
// to fail a well-formed transaction.
package scoring

import (
	"context"
	"time"
)

// Severity is the ordinal risk band derived from a continuous risk score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Default band boundaries. The high threshold is configuration; the medium
// and critical floors are fixed relative to it.
const (
	DefaultThreshold = 0.7
	mediumFloor      = 0.4
	criticalFloor    = 0.9
)

// Classify maps a risk score to a severity band for the given high
// threshold. Bands partition [0,1]; lower bounds are inclusive.
func Classify(risk, threshold float64) Severity {
	switch {
	case risk >= max(threshold, criticalFloor):
		return SeverityCritical
	case risk >= threshold:
		return SeverityHigh
	case risk >= mediumFloor:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Alertable reports whether a severity qualifies for alert dispatch.
func (s Severity) Alertable() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Assessment is the result of scoring a single transaction. Created fresh
// per transaction and never mutated afterwards.
type Assessment struct {
	ID       string             `json:"id"`
	TxRef    string             `json:"txRef,omitempty"`
	Risk     float64            `json:"risk"`
	Severity Severity           `json:"level"`
	Parts    map[string]float64 `json:"parts,omitempty"`
	ScoredAt time.Time          `json:"scoredAt"`
}

// Store persists assessments for an audit trail. Recording is best-effort
// from the live path; a failing store never blocks scoring.
type Store interface {
	Record(ctx context.Context, assessment *Assessment) error
	ListRecent(ctx context.Context, limit int) ([]*Assessment, error)
}
