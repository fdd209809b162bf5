package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
	gridio "github.com/matzehuels/gridengine/pkg/io"
	"github.com/matzehuels/gridengine/pkg/render"
	"github.com/matzehuels/gridengine/pkg/render/dot"
	"github.com/matzehuels/gridengine/pkg/render/text"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output    string  // output file; stdout when empty
	format    string  // one of render.Formats
	cellSpace int     // text: blanks per empty cell
	unit      float64 // dot/svg: cell size in inches
	detailed  bool    // dot/svg: add geometry to labels
	scale     float64 // png: resolution factor
}

// renderCommand renders a stored layout or a layout JSON file.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: "text", cellSpace: 1, unit: dot.DefaultUnit, scale: 2}

	cmd := &cobra.Command{
		Use:   "render <layout|file.json>",
		Short: "Render a layout as text, JSON, DOT, SVG, PDF or PNG",
		Long: `Render a layout. The argument is a JSON file written by play --out or
export, or the name of a layout in the configured store.

PDF and PNG output need rsvg-convert (librsvg) on PATH.`,
		Example: `  gridengine render office
  gridengine render office -f svg -o office.svg
  gridengine render layout.json -f png --scale 3 -o layout.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(render.Formats, ", "))
	cmd.Flags().IntVar(&opts.cellSpace, "cell-space", opts.cellSpace, "blanks drawn in an empty cell (text)")
	cmd.Flags().Float64Var(&opts.unit, "unit", opts.unit, "cell size in inches (dot, svg, pdf, png)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label items with position and size (dot, svg, pdf, png)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "resolution factor (png)")

	return cmd
}

// validateFormat checks f against render.Formats.
func validateFormat(f string) error {
	if !slices.Contains(render.Formats, f) {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "invalid format %q (must be one of %s)", f, strings.Join(render.Formats, ", "))
	}
	return nil
}

func (c *CLI) runRender(ctx context.Context, src string, opts renderOpts) error {
	e, err := c.loadLayout(ctx, src)
	if err != nil {
		return err
	}

	var spin *Spinner
	if opts.format == "svg" || opts.format == "pdf" || opts.format == "png" {
		spin = newSpinner(ctx, os.Stderr, "Rendering "+opts.format+"...")
		spin.Start()
	}
	data, err := renderLayout(ctx, e, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := c.stdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	c.printSuccess("Rendered %s", opts.format)
	c.printFile(opts.output)
	return nil
}

// loadLayout reads src as a JSON file if it exists, otherwise as a stored
// layout name.
func (c *CLI) loadLayout(ctx context.Context, src string) (*grid.Engine, error) {
	if fi, err := os.Stat(src); err == nil && !fi.IsDir() {
		return gridio.ImportJSON(src)
	}
	layouts, closeStore, err := c.openLayouts(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return layouts.Load(ctx, src)
}

// renderLayout produces the bytes of e in opts.format.
func renderLayout(ctx context.Context, e *grid.Engine, opts renderOpts) ([]byte, error) {
	switch opts.format {
	case "text":
		return []byte(text.Format(e.Grid(), opts.cellSpace)), nil
	case "json":
		var buf bytes.Buffer
		if err := gridio.WriteJSON(e, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	v := e.Grid()
	src := dot.ToDOT(e.Nodes(), dot.Options{Cols: v.Cols(), Rows: v.Rows(), Unit: opts.unit, Detailed: opts.detailed})
	if opts.format == "dot" {
		return []byte(src), nil
	}

	svg, err := dot.RenderSVG(ctx, src)
	if err != nil {
		return nil, err
	}
	switch opts.format {
	case "pdf":
		return render.ToPDF(ctx, svg)
	case "png":
		return render.ToPNG(ctx, svg, opts.scale)
	}
	return svg, nil
}
