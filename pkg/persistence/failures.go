// Copyright 2025 Shadow Atlas Contributors

package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/shadowatlas/atlas/pkg/errs"
)

// Failure records one error encountered during a job, tagged with its
// errs.Kind for later triage.
type Failure struct {
	JobID      string
	StateFIPS  string
	Layer      string
	Kind       errs.Kind
	Message    string
	OccurredAt time.Time
}

// FailureRepository persists Failure rows.
type FailureRepository struct {
	db *sql.DB
}

// NewFailureRepository builds a repository over the given client.
func NewFailureRepository(c *Client) *FailureRepository {
	return &FailureRepository{db: c.DB()}
}

// Record inserts a failure row.
func (r *FailureRepository) Record(ctx context.Context, f Failure) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO failures (job_id, state_code, layer_type, kind, message, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.JobID, f.StateFIPS, f.Layer, string(f.Kind), f.Message, f.OccurredAt)
	return err
}

// ListByJob returns every failure recorded for a job, most recent first.
func (r *FailureRepository) ListByJob(ctx context.Context, jobID string) ([]Failure, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT job_id, state_code, layer_type, kind, message, occurred_at FROM failures WHERE job_id = ? ORDER BY occurred_at DESC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		var kind string
		if err := rows.Scan(&f.JobID, &f.StateFIPS, &f.Layer, &kind, &f.Message, &f.OccurredAt); err != nil {
			return nil, err
		}
		f.Kind = errs.Kind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}
