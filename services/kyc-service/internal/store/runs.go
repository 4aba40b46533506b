package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRecord is one persisted workflow run.
type RunRecord struct {
	ID                uuid.UUID `json:"id"`
	Subject           string    `json:"subject"`
	Category          string    `json:"category"`
	CustomerID        string    `json:"customerId"`
	Status            string    `json:"status"`
	RiskLevel         string    `json:"riskLevel"`
	Verification      string    `json:"verification"`
	Confidence        float64   `json:"confidence"`
	ProcessingSeconds float64   `json:"processingTime"`
	CreatedAt         time.Time `json:"createdAt"`
}

// RunStore persists workflow runs for audit. A nil pool disables
// persistence without failing workflows.
type RunStore struct {
	pool *pgxpool.Pool
}

func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Save inserts one run record. Persistence is best effort.
func (s *RunStore) Save(ctx context.Context, rec RunRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}

	query := `
		INSERT INTO workflow_runs
			(id, subject, category, customer_id, status, risk_level, verification, confidence, processing_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Subject, rec.Category, rec.CustomerID, rec.Status,
		rec.RiskLevel, rec.Verification, rec.Confidence, rec.ProcessingSeconds, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow run: %w", err)
	}

	log.Printf("[KYC] persisted workflow run %s", rec.ID)
	return nil
}

// Recent returns the latest runs, newest first.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil || s.pool == nil {
		return []RunRecord{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, subject, category, customer_id, status, risk_level, verification, confidence, processing_seconds, created_at
		FROM workflow_runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query workflow runs: %w", err)
	}
	defer rows.Close()

	records := []RunRecord{}
	for rows.Next() {
		var rec RunRecord
		err := rows.Scan(&rec.ID, &rec.Subject, &rec.Category, &rec.CustomerID, &rec.Status,
			&rec.RiskLevel, &rec.Verification, &rec.Confidence, &rec.ProcessingSeconds, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan workflow run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read workflow runs: %w", err)
	}
	return records, nil
}
