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

// JobRepository persists boundary.Job records.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository builds a repository over the given client.
func NewJobRepository(c *Client) *JobRepository {
	return &JobRepository{db: c.DB()}
}

// Create inserts a new job row.
func (r *JobRepository) Create(ctx context.Context, job *boundary.Job) error {
	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("persistence: marshal request: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, request_json, created_at) VALUES (?, ?, ?, ?)`,
		job.ID, job.Status, string(requestJSON), job.CreatedAt)
	return err
}

// UpdateStatus transitions a job's status and stamps the relevant timestamp.
func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status boundary.JobStatus, failReason string) error {
	now := time.Now().UTC()
	switch status {
	case boundary.JobRunning:
		_, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = ?, started_at = ? WHERE id = ?`, status, now, id)
		return err
	case boundary.JobCompleted, boundary.JobFailed:
		_, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = ?, completed_at = ?, fail_reason = ? WHERE id = ?`, status, now, failReason, id)
		return err
	case boundary.JobArchived:
		_, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = ?, archived_at = ? WHERE id = ?`, status, now, id)
		return err
	default:
		_, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, status, id)
		return err
	}
}

// Get retrieves a job by ID.
func (r *JobRepository) Get(ctx context.Context, id string) (*boundary.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, status, request_json, fail_reason, created_at, started_at, completed_at, archived_at FROM jobs WHERE id = ?`, id)

	var job boundary.Job
	var requestJSON string
	var failReason sql.NullString
	var startedAt, completedAt, archivedAt sql.NullTime

	if err := row.Scan(&job.ID, &job.Status, &requestJSON, &failReason, &job.CreatedAt, &startedAt, &completedAt, &archivedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(requestJSON), &job.Request); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal request: %w", err)
	}
	job.FailReason = failReason.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if archivedAt.Valid {
		job.ArchivedAt = &archivedAt.Time
	}
	return &job, nil
}
