package dot

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gridengine/pkg/grid"
)

// DefaultUnit is the edge length of one grid cell in inches.
const DefaultUnit = 0.5

// Options configures diagram generation.
type Options struct {
	// Cols and Rows size the dashed grid frame. The frame is omitted when
	// either is zero.
	Cols, Rows int

	// Unit is the cell size in inches. Zero means [DefaultUnit].
	Unit float64

	// Detailed adds position and size to each label.
	Detailed bool
}

// palette holds fill colours assigned to items by id hash.
var palette = []string{
	"#a6cee3", "#b2df8a", "#fb9a99", "#fdbf6f",
	"#cab2d6", "#ffff99", "#8dd3c7", "#bebada",
}

// ToDOT converts placed items to Graphviz DOT. Each item is a box whose
// centre is pinned at its grid rectangle's centre; y grows downward as on
// the grid.
func ToDOT(nodes []grid.Node, opts Options) string {
	unit := opts.Unit
	if unit <= 0 {
		unit = DefaultUnit
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontsize=14, penwidth=1.5];\n")
	buf.WriteString("\n")

	if opts.Cols > 0 && opts.Rows > 0 {
		frame := grid.NewNode("", 0, 0, opts.Cols, opts.Rows)
		fmt.Fprintf(&buf, "  %q [%s];\n", "__grid", strings.Join([]string{
			`label=""`,
			`style="dashed"`,
			"color=grey",
			geometry(frame, unit),
		}, ", "))
	}

	for _, n := range nodes {
		if n.Empty() {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("fillcolor=%q", fillColor(n.ID)),
			geometry(n, unit),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func geometry(n grid.Node, unit float64) string {
	cx := (float64(n.X) + float64(n.W)/2) * unit
	cy := -(float64(n.Y) + float64(n.H)/2) * unit
	return fmt.Sprintf(`pos="%s,%s!", width=%s, height=%s`,
		ftoa(cx), ftoa(cy), ftoa(float64(n.W)*unit), ftoa(float64(n.H)*unit))
}

func fmtLabel(n grid.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	return fmt.Sprintf("%s\n(%d,%d) %dx%d", n.ID, n.X, n.Y, n.W, n.H)
}

func fillColor(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// RenderSVG renders a DOT graph to SVG using Graphviz with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg tag with one that scales.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
