// Package render provides output formats for grid layouts.
//
// # Overview
//
// Layouts are rendered in three ways:
//
//   - Plain text grids (in [text] subpackage), the format printed by the
//     play and tui commands
//   - Graphviz DOT and SVG (in [dot] subpackage), one pinned box per item
//   - PDF and PNG, converted from SVG by [ToPDF] and [ToPNG]
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := dot.RenderSVG(ctx, dot.ToDOT(engine.Nodes(), dot.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [text]: github.com/matzehuels/gridengine/pkg/render/text
// [dot]: github.com/matzehuels/gridengine/pkg/render/dot
package render
