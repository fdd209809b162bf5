// Package store persists named grid layouts.
//
// # Architecture
//
// A [Store] is a byte-level key/value backend with optional expiry:
//   - file: JSON entry files under a directory, for CLI use
//   - redis: shared storage for multi-instance servers
//   - mongo: document storage with a TTL index
//   - sqlite: a single local database file
//   - none: [NullStore], nothing is kept
//
// [Layouts] sits on top of a Store. It maps layout names to keys with a
// [Keyer], encodes engines with package io and reports loads, saves and
// failures to the observability store hooks.
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Backend: store.BackendFile, Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	layouts := store.NewLayouts(s, nil, 0, logger)
//	if err := layouts.Save(ctx, "dashboard", engine); err != nil {
//	    return err
//	}
//	engine, err = layouts.Load(ctx, "dashboard")
package store

import (
	"context"
	"time"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

// Store is a key/value backend for encoded layouts.
type Store interface {
	// Get returns the value stored under key. A missing or expired key is a
	// miss (false, nil error), not a failure.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero keeps the entry forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every live key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Backend names the implementation ("file", "redis", ...).
	Backend() string

	// Close releases the backend's connections or handles.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Backends lists every backend name accepted by [Open].
var Backends = []string{BackendNone, BackendFile, BackendRedis, BackendMongo, BackendSQLite}

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string // file backend directory
	Redis   RedisConfig
	Mongo   MongoConfig
	SQLite  SQLiteConfig
}

// Open creates the backend named by cfg.Backend. An empty backend name
// selects the file store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendNone:
		return NewNullStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite)
	}
	return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
}
