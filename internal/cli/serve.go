package cli

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridengine/pkg/buildinfo"
	"github.com/matzehuels/gridengine/pkg/observability/prom"
	"github.com/matzehuels/gridengine/pkg/server"
)

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over a JSON HTTP API backed by the configured store.

Committed changes are published to the configured broadcast backend, and
Prometheus metrics are exposed on /metrics unless disabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, cfg.Server.Metrics && !noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (default from config)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, metrics bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	spin := newSpinner(ctx, os.Stderr, "Connecting to "+cfg.Store.Backend+" store...")
	spin.Start()
	layouts, closeStore, err := c.openLayouts(ctx)
	spin.Stop()
	if err != nil {
		return err
	}
	defer closeStore()

	pub, closePub, err := c.newPublisher(ctx)
	if err != nil {
		return err
	}
	defer closePub()

	opts := []server.Option{
		server.WithLogger(c.Logger),
		server.WithPublisher(pub),
		server.WithCellSpace(cfg.Grid.CellSpace),
		server.WithMaxRows(cfg.Server.MaxRows),
	}
	if metrics {
		reg := prometheus.NewRegistry()
		prom.Register(reg)
		opts = append(opts, server.WithMetrics(reg))
	}

	c.Logger.Info("serving layouts",
		"addr", addr,
		"store", layouts.Store.Backend(),
		"broadcast", cfg.Broadcast.Backend,
		"metrics", metrics,
		"version", buildinfo.Version)
	return server.New(layouts, opts...).ListenAndServe(ctx, addr)
}
