package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridengine/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Gridengine places rectangles on a grid and pushes collisions down",
		Long:         `Gridengine is a grid layout engine: items are rectangles on a fixed-width grid, and an item placed on top of others pushes them straight down, cascading as needed.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $GRIDENGINE_CONFIG or ~/.config/gridengine/config.toml)")

	root.AddCommand(c.playCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
