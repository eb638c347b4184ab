// Copyright 2025 Shadow Atlas Contributors

package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

// ValidationResultRepository persists boundary.ValidationResult records.
type ValidationResultRepository struct {
	db *sql.DB
}

// NewValidationResultRepository builds a repository over the given client.
func NewValidationResultRepository(c *Client) *ValidationResultRepository {
	return &ValidationResultRepository{db: c.DB()}
}

// Create inserts a validation result row.
func (r *ValidationResultRepository) Create(ctx context.Context, jobID string, vr *boundary.ValidationResult) error {
	resultJSON, err := json.Marshal(vr)
	if err != nil {
		return fmt.Errorf("persistence: marshal validation result: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO validation_results (job_id, layer_type, state_code, quality_score, result_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, vr.Layer, vr.StateFIPS, vr.QualityScore, string(resultJSON), time.Now().UTC())
	return err
}

// ListByJob returns every validation result recorded for a job.
func (r *ValidationResultRepository) ListByJob(ctx context.Context, jobID string) ([]boundary.ValidationResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT result_json FROM validation_results WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []boundary.ValidationResult
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, err
		}
		var vr boundary.ValidationResult
		if err := json.Unmarshal([]byte(resultJSON), &vr); err != nil {
			return nil, fmt.Errorf("persistence: unmarshal validation result: %w", err)
		}
		out = append(out, vr)
	}
	return out, rows.Err()
}
