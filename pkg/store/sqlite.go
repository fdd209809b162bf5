package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

// SQLiteConfig configures [NewSQLiteStore].
type SQLiteConfig struct {
	// Path of the database file. Empty means layouts.db next to [DefaultDir].
	Path string
}

// SQLiteStore keeps layouts in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	path := cfg.Path
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(filepath.Dir(dir), "layouts.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: a :memory: database exists per connection, and SQLite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// migrate creates the layouts table.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS layouts (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_layouts_expires ON layouts(expires_at);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating layouts table: %w", err)
	}
	return nil
}

// Get retrieves a value. Expired rows are deleted and reported as misses.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data      []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM layouts WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, gerrors.Wrap(gerrors.ErrCodeInternal, err, "querying layout %s", key)
	}

	if expiresAt != 0 && time.Now().UnixNano() > expiresAt {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM layouts WHERE key = ?`, key)
		return nil, false, nil
	}
	return data, true, nil
}

// Set upserts a value.
func (s *SQLiteStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	query := `
		INSERT INTO layouts (key, data, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, data, expiresAt, now.UnixNano()); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInternal, err, "storing layout %s", key)
	}
	return nil
}

// Delete removes a row.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE key = ?`, key); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInternal, err, "deleting layout %s", key)
	}
	return nil
}

// List returns live keys with prefix in key order.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM layouts
		WHERE substr(key, 1, length(?1)) = ?1
		  AND (expires_at = 0 OR expires_at > ?2)
		ORDER BY key
	`, prefix, time.Now().UnixNano())
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInternal, err, "listing layouts")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeInternal, err, "scanning layout key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInternal, err, "listing layouts")
	}
	return keys, nil
}

// Backend returns "sqlite".
func (s *SQLiteStore) Backend() string { return BackendSQLite }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
