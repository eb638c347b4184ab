// Copyright 2025 Shadow Atlas Contributors
//
// SQLite-backed persistence client: connection setup, WAL mode, and the
// embedded-migration pattern the teacher's Postgres client uses
// (pkg/database/client.go), adapted from lib/pq to modernc.org/sqlite (a
// pure-Go driver, grounded on the teacher's own nested liteclient module,
// accumulate-lite-client-2/liteclient/storage/sqlite/store.go, which
// imports the same driver but never enables it).
//
// Single-writer semantics: the pool is capped at one open connection
// (db.SetMaxOpenConns(1)), so reads and writes share that connection and
// run one at a time.

package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client wraps a SQLite database handle.
type Client struct {
	db     *sql.DB
	logger *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient opens (creating if necessary) a SQLite database at path and
// enables WAL mode for concurrent readers.
func NewClient(path string, opts ...ClientOption) (*Client, error) {
	if path == "" {
		return nil, fmt.Errorf("persistence: database path cannot be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer semantics

	client := &Client{db: db, logger: log.New(log.Writer(), "[Persistence] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(client)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: enable foreign keys: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: ping: %w", err)
	}

	return client, nil
}

// DB returns the underlying *sql.DB, for repositories in this package.
func (c *Client) DB() *sql.DB { return c.db }

// Close releases the database handle.
func (c *Client) Close() error { return c.db.Close() }

// HealthStatus reports the persistence layer's current condition.
type HealthStatus struct {
	Healthy bool
	Message string
}

// Health pings the database.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	if err := c.db.PingContext(ctx); err != nil {
		return &HealthStatus{Healthy: false, Message: err.Error()}, nil
	}
	return &HealthStatus{Healthy: true, Message: "ok"}, nil
}

// Migration is one embedded SQL migration file.
type Migration struct {
	Version  string
	Filename string
	SQL      string
}

func (c *Client) getMigrations() ([]Migration, error) {
	var migrations []Migration
	err := fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		filename := d.Name()
		migrations = append(migrations, Migration{
			Version:  strings.TrimSuffix(filename, ".sql"),
			Filename: filename,
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func (c *Client) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// MigrateUp applies every embedded migration not yet recorded in
// schema_migrations, in version order.
func (c *Client) MigrateUp(ctx context.Context) error {
	migrations, err := c.getMigrations()
	if err != nil {
		return fmt.Errorf("persistence: list migrations: %w", err)
	}
	applied, err := c.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("persistence: list applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := c.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("persistence: apply %s: %w", m.Version, err)
		}
		c.logger.Printf("applied migration %s", m.Version)
	}
	return nil
}

func (c *Client) applyMigration(ctx context.Context, m Migration) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("exec migration sql: %w", err)
	}
	return tx.Commit()
}
