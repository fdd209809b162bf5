package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridengine/pkg/store"
)

// storeCommand manages saved layouts.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage saved layouts",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeShowCommand())
	cmd.AddCommand(c.storeDeleteCommand())
	cmd.AddCommand(c.storePathCommand())

	return cmd
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			layouts, closeStore, err := c.openLayouts(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			names, err := layouts.List(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				c.printInfo("No saved layouts")
				return nil
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				e, err := layouts.Load(ctx, name)
				if err != nil {
					rows = append(rows, []string{name, "—", "—", err.Error()})
					continue
				}
				v := e.Grid()
				rows = append(rows, []string{name, strconv.Itoa(e.Len()), fmt.Sprintf("%d×%d", v.Cols(), v.Rows()), ""})
			}

			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Layout", "Items", "Size", "Error").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					switch {
					case row == -1:
						return headerStyle
					case col == 0:
						return StyleValue
					case col == 3:
						return styleIconError
					}
					return StyleDim
				})
			fmt.Fprintln(c.stdout(), t.Render())
			c.printDetail("%d layouts in %s store", len(names), layouts.Store.Backend())
			return nil
		},
	}
}

// storeShowCommand creates the "store show" subcommand.
func (c *CLI) storeShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <layout>",
		Short: "Print a saved layout",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.completeLayouts(cmd, args, prefix)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			layouts, closeStore, err := c.openLayouts(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			e, err := layouts.Load(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout(), StyleTitle.Render(args[0]))
			fmt.Fprintln(c.stdout(), styledGrid(e.Grid(), cfg.Grid.CellSpace, nil))
			for _, n := range e.Nodes() {
				c.printKeyValue(n.ID, fmt.Sprintf("(%d,%d) %d×%d", n.X, n.Y, n.W, n.H))
			}
			return nil
		},
	}
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <layout>...",
		Aliases:           []string{"rm"},
		Short:             "Delete saved layouts",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeLayouts,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			layouts, closeStore, err := c.openLayouts(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, name := range args {
				if err := layouts.Delete(ctx, name); err != nil {
					return err
				}
			}
			c.printSuccess("Deleted %d layouts", len(args))
			return nil
		},
	}
}

// storePathCommand creates the "store path" subcommand.
func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the configured store keeps layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			loc, err := storeLocation(cfg.StoreConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout(), loc)
			return nil
		},
	}
}

// storeLocation describes where a backend keeps its data.
func storeLocation(sc store.Config) (string, error) {
	switch sc.Backend {
	case store.BackendRedis:
		return "redis://" + sc.Redis.Addr + "/" + strconv.Itoa(sc.Redis.DB), nil
	case store.BackendMongo:
		return sc.Mongo.URI, nil
	case store.BackendNone:
		return "(not persisted)", nil
	case store.BackendSQLite:
		if sc.SQLite.Path != "" {
			return sc.SQLite.Path, nil
		}
		dir, err := store.DefaultDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(filepath.Dir(dir), "layouts.db"), nil
	}
	if sc.Dir != "" {
		return sc.Dir, nil
	}
	return store.DefaultDir()
}
