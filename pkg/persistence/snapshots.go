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

// SnapshotRepository persists boundary.Snapshot records.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository builds a repository over the given client.
func NewSnapshotRepository(c *Client) *SnapshotRepository {
	return &SnapshotRepository{db: c.DB()}
}

// Create inserts a new snapshot row.
func (r *SnapshotRepository) Create(ctx context.Context, jobID string, s *boundary.Snapshot) error {
	regionsJSON, err := json.Marshal(s.Regions)
	if err != nil {
		return fmt.Errorf("persistence: marshal regions: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, job_id, merkle_root, regions_json, artifact_path, boundary_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, jobID, s.MerkleRoot, string(regionsJSON), s.ArtifactPath, s.BoundaryCount, s.CreatedAt)
	return err
}

// Get retrieves a snapshot by ID.
func (r *SnapshotRepository) Get(ctx context.Context, id string) (*boundary.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, merkle_root, regions_json, artifact_path, boundary_count, created_at, deprecated_at FROM snapshots WHERE id = ?`, id)

	var s boundary.Snapshot
	var regionsJSON string
	var deprecatedAt sql.NullTime
	if err := row.Scan(&s.ID, &s.MerkleRoot, &regionsJSON, &s.ArtifactPath, &s.BoundaryCount, &s.CreatedAt, &deprecatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(regionsJSON), &s.Regions); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal regions: %w", err)
	}
	if deprecatedAt.Valid {
		s.DeprecatedAt = &deprecatedAt.Time
	}
	return &s, nil
}

// Deprecate marks a snapshot superseded by a later build.
func (r *SnapshotRepository) Deprecate(ctx context.Context, id string, when time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE snapshots SET deprecated_at = ? WHERE id = ?`, when, id)
	return err
}
