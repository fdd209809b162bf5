// Package text renders a grid as a plain-text matrix.
//
// The first line lists column indices. Every following line starts with the
// zero-padded row number and shows one bracketed cell per column: the item id
// for occupied cells, or cellSpace blanks for empty ones.
//
//	   0  1  2
//	00[a][a][ ]
//	01[ ][ ][b]
package text

import (
	"fmt"
	"strings"

	"github.com/matzehuels/gridengine/pkg/grid"
)

// Options configures [Render].
type Options struct {
	// CellSpace is the number of blanks drawn inside an empty cell.
	CellSpace int

	// Style, when set, decorates each rendered cell (brackets included).
	// The CLI uses it to colour cells per item.
	Style func(c grid.Cell, s string) string
}

// Format renders v with cellSpace blanks per empty cell and no styling.
func Format(v grid.View, cellSpace int) string {
	return Render(v, Options{CellSpace: cellSpace})
}

// Render renders v according to opts.
func Render(v grid.View, opts Options) string {
	var b strings.Builder
	empty := "[" + strings.Repeat(" ", max(opts.CellSpace, 0)) + "]"

	b.WriteString("  ")
	for i := range v.Cols() {
		fmt.Fprintf(&b, " %d ", i)
	}
	b.WriteString("\n")

	for c := range v.All() {
		if c.X == 0 {
			fmt.Fprintf(&b, "%02d", c.Y)
		}
		s := empty
		if c.ID != "" {
			s = "[" + c.ID + "]"
		}
		if opts.Style != nil {
			s = opts.Style(c, s)
		}
		b.WriteString(s)
		if c.X == v.Cols()-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
