// Copyright 2025 Shadow Atlas Contributors

package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

// Extraction records one successful provider fetch within a job.
type Extraction struct {
	JobID         string
	StateFIPS     string
	Layer         boundary.Type
	ProviderName  string
	BoundaryCount int
	Checksum      string
	RetrievedAt   time.Time
}

// ExtractionRepository persists Extraction rows. The unique constraint on
// (job_id, state_code, layer_type) means a re-run of the same scope within
// a job replaces rather than duplicates.
type ExtractionRepository struct {
	db *sql.DB
}

// NewExtractionRepository builds a repository over the given client.
func NewExtractionRepository(c *Client) *ExtractionRepository {
	return &ExtractionRepository{db: c.DB()}
}

// Upsert records or replaces an extraction for (job, state, layer).
func (r *ExtractionRepository) Upsert(ctx context.Context, e Extraction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extractions (job_id, state_code, layer_type, provider_name, boundary_count, checksum, retrieved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id, state_code, layer_type) DO UPDATE SET
			provider_name = excluded.provider_name,
			boundary_count = excluded.boundary_count,
			checksum = excluded.checksum,
			retrieved_at = excluded.retrieved_at`,
		e.JobID, e.StateFIPS, e.Layer, e.ProviderName, e.BoundaryCount, e.Checksum, e.RetrievedAt)
	return err
}

// ListByJob returns every extraction recorded for a job.
func (r *ExtractionRepository) ListByJob(ctx context.Context, jobID string) ([]Extraction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT job_id, state_code, layer_type, provider_name, boundary_count, checksum, retrieved_at FROM extractions WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		if err := rows.Scan(&e.JobID, &e.StateFIPS, &e.Layer, &e.ProviderName, &e.BoundaryCount, &e.Checksum, &e.RetrievedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
