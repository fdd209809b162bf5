// Package config loads gridengine settings from defaults, a TOML file and
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/store"
)

// Broadcast backends.
const (
	BroadcastNone  = "none"
	BroadcastLog   = "log"
	BroadcastRedis = "redis"
)

// Config holds the application configuration.
type Config struct {
	Grid      GridConfig      `toml:"grid"`
	Store     StoreConfig     `toml:"store"`
	Redis     RedisConfig     `toml:"redis"`
	Mongo     MongoConfig     `toml:"mongo"`
	SQLite    SQLiteConfig    `toml:"sqlite"`
	Broadcast BroadcastConfig `toml:"broadcast"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// GridConfig holds the size of new layouts and text rendering settings.
type GridConfig struct {
	Rows      int `toml:"rows"`
	Cols      int `toml:"cols"`
	CellSpace int `toml:"cell_space"` // width of an empty cell in text output
}

// StoreConfig selects the layout store.
type StoreConfig struct {
	Backend string        `toml:"backend"` // none, file, redis, mongo, sqlite
	Dir     string        `toml:"dir"`     // file backend directory
	TTL     time.Duration `toml:"ttl"`     // 0 keeps layouts forever
	Scope   string        `toml:"scope"`   // optional key prefix, e.g. a tenant
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// BroadcastConfig selects where committed change-sets are published.
type BroadcastConfig struct {
	Backend string `toml:"backend"` // none, log, redis
	Channel string `toml:"channel"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
	MaxRows int    `toml:"max_rows"` // deepest row a request may place an item on
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Grid:      GridConfig{Rows: 10, Cols: 12, CellSpace: 1},
		Store:     StoreConfig{Backend: store.BackendFile},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		Mongo:     MongoConfig{URI: "mongodb://localhost:27017", Database: "gridengine", Collection: "layouts"},
		Broadcast: BroadcastConfig{Backend: BroadcastNone, Channel: "gridengine"},
		Server:    ServerConfig{Addr: ":8080", Metrics: true, MaxRows: 10_000},
		Log:       LogConfig{Level: "info"},
	}
}

// DefaultPath returns the config file path: $GRIDENGINE_CONFIG if set,
// otherwise ~/.config/gridengine/config.toml.
func DefaultPath() string {
	if v := os.Getenv("GRIDENGINE_CONFIG"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "gridengine.toml"
	}
	return filepath.Join(home, ".config", "gridengine", "config.toml")
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error. An empty path
// means [DefaultPath].
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Store.Dir = expandPath(cfg.Store.Dir)
	cfg.SQLite.Path = expandPath(cfg.SQLite.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return gerrors.New(gerrors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv applies GRIDENGINE_* overrides.
func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"GRIDENGINE_STORE":       &cfg.Store.Backend,
		"GRIDENGINE_STORE_DIR":   &cfg.Store.Dir,
		"GRIDENGINE_STORE_SCOPE": &cfg.Store.Scope,
		"GRIDENGINE_REDIS_ADDR":  &cfg.Redis.Addr,
		"GRIDENGINE_REDIS_PASS":  &cfg.Redis.Password,
		"GRIDENGINE_MONGO_URI":   &cfg.Mongo.URI,
		"GRIDENGINE_SQLITE_PATH": &cfg.SQLite.Path,
		"GRIDENGINE_BROADCAST":   &cfg.Broadcast.Backend,
		"GRIDENGINE_SERVER_ADDR": &cfg.Server.Addr,
		"GRIDENGINE_LOG_LEVEL":   &cfg.Log.Level,
	}
	for name, dst := range str {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("GRIDENGINE_STORE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "GRIDENGINE_STORE_TTL")
		}
		cfg.Store.TTL = d
	}
	if v := os.Getenv("GRIDENGINE_SERVER_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "GRIDENGINE_SERVER_METRICS")
		}
		cfg.Server.Metrics = b
	}
	if v := os.Getenv("GRIDENGINE_SERVER_MAX_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "GRIDENGINE_SERVER_MAX_ROWS")
		}
		cfg.Server.MaxRows = n
	}
	return nil
}

func expandPath(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := gerrors.ValidateDimensions(c.Grid.Rows, c.Grid.Cols); err != nil {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "[grid] %s", gerrors.UserMessage(err))
	}
	if c.Grid.CellSpace < 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "[grid] cell_space must not be negative")
	}
	if !slices.Contains(store.Backends, c.Store.Backend) {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "[store] unknown backend %q (want one of %s)",
			c.Store.Backend, strings.Join(store.Backends, ", "))
	}
	if c.Store.TTL < 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "[store] ttl must not be negative")
	}
	switch c.Broadcast.Backend {
	case BroadcastNone, BroadcastLog, BroadcastRedis:
	default:
		return gerrors.New(gerrors.ErrCodeInvalidInput, "[broadcast] unknown backend %q", c.Broadcast.Backend)
	}
	if c.Server.MaxRows < c.Grid.Rows {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "[server] max_rows (%d) must be at least [grid] rows (%d)",
			c.Server.MaxRows, c.Grid.Rows)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "[log] level")
	}
	return nil
}

// StoreConfig converts the store sections to a [store.Config].
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		Redis:   store.RedisConfig{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB},
		Mongo:   store.MongoConfig{URI: c.Mongo.URI, Database: c.Mongo.Database, Collection: c.Mongo.Collection},
		SQLite:  store.SQLiteConfig{Path: c.SQLite.Path},
	}
}

// Keyer returns the layout key scheme, scoped when [store] scope is set.
func (c *Config) Keyer() store.Keyer {
	k := store.NewDefaultKeyer()
	if c.Store.Scope != "" {
		k = store.NewScopedKeyer(k, c.Store.Scope)
	}
	return k
}

// LogLevel returns the parsed [log] level. Validate has already checked it.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// SaveTo writes c to path, creating the parent directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	if err := c.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
