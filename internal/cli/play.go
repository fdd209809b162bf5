package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridengine/pkg/broadcast"
	"github.com/matzehuels/gridengine/pkg/grid"
	gridio "github.com/matzehuels/gridengine/pkg/io"
	"github.com/matzehuels/gridengine/pkg/script"
)

// playOpts holds the flags of the play command.
type playOpts struct {
	rows, cols  int
	cellSpace   int
	delay       time.Duration
	stopOnError bool
	quiet       bool   // print only the final grid
	save        string // layout name to store the result under
	out         string // JSON export path
}

// playCommand runs a script against a fresh grid.
func (c *CLI) playCommand() *cobra.Command {
	var opts playOpts

	cmd := &cobra.Command{
		Use:   "play <script|->",
		Short: "Run a script of add/mv/rm commands on a new grid",
		Long: `Run a script of grid commands and print the grid after each step.

Script lines:
  add <id> <x> <y> <w> <h>
  mv <id> <x> <y>
  rm <id>

Blank lines and lines starting with # are ignored. Use - to read from stdin.`,
		Example: `  gridengine play examples/demo.grid --delay 250ms
  gridengine play layout.grid --save office --quiet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rows") {
				opts.rows = cfg.Grid.Rows
			}
			if !cmd.Flags().Changed("cols") {
				opts.cols = cfg.Grid.Cols
			}
			if !cmd.Flags().Changed("cell-space") {
				opts.cellSpace = cfg.Grid.CellSpace
			}
			return c.runPlay(cmd.Context(), args[0], cmd.InOrStdin(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.rows, "rows", 10, "initial rows (default from config)")
	cmd.Flags().IntVar(&opts.cols, "cols", 12, "columns (default from config)")
	cmd.Flags().IntVar(&opts.cellSpace, "cell-space", 1, "blanks drawn in an empty cell")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "pause between commands, e.g. 250ms")
	cmd.Flags().BoolVar(&opts.stopOnError, "stop-on-error", false, "stop at the first failing command")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only the final grid")
	cmd.Flags().StringVar(&opts.save, "save", "", "save the final layout to the store under this name")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the final layout as JSON to this file")

	return cmd
}

func (c *CLI) runPlay(ctx context.Context, path string, stdin io.Reader, opts playOpts) error {
	cmds, err := readScript(path, stdin)
	if err != nil {
		return err
	}

	e := grid.New(opts.rows, opts.cols, grid.WithLogger(c.Logger))
	e.AddListener(func(cs grid.ChangeSet) {
		c.Logger.Debug("changes", "set", cs.String())
	})

	if opts.save != "" {
		pub, closePub, err := c.newPublisher(ctx)
		if err != nil {
			return err
		}
		defer closePub()
		e.AddListener(broadcast.Listener(ctx, pub, opts.save, c.Logger))
	}

	w := c.stdout()
	runner := script.NewRunner(func(st script.Step) {
		if st.Err != nil {
			c.printError("%d: %s: %v", st.Command.Line, st.Command, st.Err)
			return
		}
		if opts.quiet {
			return
		}
		c.printInfo("%s %s", st.Command, StyleDim.Render(st.Changes.String()))
		fmt.Fprintln(w, styledGrid(e.Grid(), opts.cellSpace, changedIDs(st.Changes)))
	}, c.Logger)
	runner.Delay = opts.delay
	runner.StopOnError = opts.stopOnError

	prog := newProgress(c.Logger)
	sum, runErr := runner.Run(ctx, e, cmds)
	if opts.quiet {
		fmt.Fprintln(w, styledGrid(e.Grid(), opts.cellSpace, nil))
	}
	if runErr != nil {
		return runErr
	}
	prog.done(fmt.Sprintf("Played %d commands: %d applied, %d failed", len(cmds), sum.Applied, sum.Failed))

	if err := e.CheckConsistency(); err != nil {
		return err
	}
	return c.finishLayout(ctx, e, opts.save, opts.out)
}

// finishLayout stores and/or exports a layout built by play or tui.
func (c *CLI) finishLayout(ctx context.Context, e *grid.Engine, save, out string) error {
	if out != "" {
		if err := gridio.ExportJSON(e, out); err != nil {
			return err
		}
		c.printSuccess("Exported layout")
		c.printFile(out)
	}
	if save != "" {
		layouts, closeStore, err := c.openLayouts(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		if err := layouts.Save(ctx, save, e); err != nil {
			return err
		}
		c.printSuccess("Saved layout %s", StyleValue.Render(save))
		c.printDetail("%d items, %d rows, backend %s", e.Len(), e.Grid().Rows(), layouts.Store.Backend())
	}
	return nil
}

func readScript(path string, stdin io.Reader) ([]script.Command, error) {
	if path == "-" {
		return script.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return script.Parse(f)
}
