package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists assessments in PostgreSQL for the audit trail.
// Schema lives in migrations/ and is applied by cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, assessment *Assessment) error {
	partsJSON, err := json.Marshal(assessment.Parts)
	if err != nil {
		return fmt.Errorf("failed to marshal score parts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, tx_ref, risk, severity, parts, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		assessment.ID,
		assessment.TxRef,
		assessment.Risk,
		string(assessment.Severity),
		partsJSON,
		assessment.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*Assessment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tx_ref, risk, severity, parts, scored_at
		FROM assessments
		ORDER BY scored_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Assessment
	for rows.Next() {
		var a Assessment
		var partsJSON []byte
		var scoredAt time.Time

		if err := rows.Scan(&a.ID, &a.TxRef, &a.Risk, &a.Severity, &partsJSON, &scoredAt); err != nil {
			continue
		}
		a.ScoredAt = scoredAt
		a.Parts = make(map[string]float64)
		_ = json.Unmarshal(partsJSON, &a.Parts)
		result = append(result, &a)
	}
	return result, rows.Err()
}
