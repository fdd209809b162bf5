// Package cli implements the gridengine command-line interface.
//
// # Commands
//
//   - play: run a script of add/mv/rm commands and print the grid after each step
//   - tui: edit a grid interactively
//   - render: render a saved layout as text, JSON, DOT, SVG, PDF or PNG
//   - serve: serve layouts over HTTP
//   - store: list, show and delete saved layouts
//   - watch: follow change events published to Redis
//   - config: show or write the configuration file
//
// Settings come from the TOML file named by --config (see package config);
// --verbose raises the log level to debug for a single run.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/gridengine/internal/config"
	"github.com/matzehuels/gridengine/pkg/broadcast"
	"github.com/matzehuels/gridengine/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "gridengine"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means config.DefaultPath.
	ConfigPath string

	cfg *config.Config
	out io.Writer
}

// New creates a new CLI instance writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output (not logs). Used by tests.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Store & Broadcast Factories
// =============================================================================

// openLayouts opens the configured store. The returned close func releases
// the backend connection.
func (c *CLI) openLayouts(ctx context.Context) (*store.Layouts, func(), error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("store opened", "backend", s.Backend())

	closeFn := func() {
		if err := s.Close(); err != nil {
			c.Logger.Warn("close store", "err", err)
		}
	}
	return store.NewLayouts(s, cfg.Keyer(), cfg.Store.TTL, c.Logger), closeFn, nil
}

// newPublisher creates the configured change publisher.
func (c *CLI) newPublisher(ctx context.Context) (broadcast.Publisher, func(), error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Broadcast.Backend {
	case config.BroadcastLog:
		return broadcast.NewLogPublisher(c.Logger), func() {}, nil
	case config.BroadcastRedis:
		client, err := c.redisClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		return broadcast.NewRedisPublisher(client, cfg.Broadcast.Channel), func() { client.Close() }, nil
	default:
		return broadcast.NopPublisher{}, func() {}, nil
	}
}

func (c *CLI) redisClient(ctx context.Context) (*redis.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	s, err := store.NewRedisStore(ctx, store.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	return s.Client(), nil
}
