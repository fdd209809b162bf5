// Package dot renders grid layouts as Graphviz diagrams.
//
// # Overview
//
// Every placed item becomes a fixed-size box pinned at its grid position, so
// the picture matches the text rendering cell for cell. Layout is done by the
// neato engine, which honours pinned positions.
//
// # Usage
//
//	src := dot.ToDOT(engine.Nodes(), dot.Options{Cols: 12})
//	svg, err := dot.RenderSVG(ctx, src)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Cols, Rows: draw a dashed frame around the grid area when set
//   - Unit: size of one grid cell in inches (default 0.5)
//   - Detailed: include the geometry in each label
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion goes through [render.ToPDF] and
// [render.ToPNG].
//
// [render.ToPDF]: github.com/matzehuels/gridengine/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/gridengine/pkg/render.ToPNG
package dot
