package grid

import (
	"iter"
	"math"
	"slices"
)

// Op selects what [Grid.SetOrClear] does with a cell.
type Op int

const (
	// OpAdd writes the node id into the cell unconditionally.
	OpAdd Op = iota
	// OpRemove clears the cell only if it still holds the node id.
	OpRemove
)

// Cell is one grid position and the id stored there ("" when empty).
type Cell struct {
	X, Y int
	ID   string
}

// View is the read-only face of a grid handed to renderers and serializers.
type View interface {
	Rows() int
	Cols() int
	// At returns the id stored at (x, y), or "" for empty or out-of-range cells.
	At(x, y int) string
	// All yields every cell in row-major order.
	All() iter.Seq[Cell]
}

// Grid is a matrix of optional item-id references with a fixed number of
// columns and a row count that can grow. Empty cells hold "".
//
// Reads and writes at y >= Rows() (with x inside the columns) grow the grid
// by just enough empty rows to serve the access, unless growth has been
// disabled with [Grid.SetExpandable].
//
// The zero value is an empty 0×0 grid that cannot serve any access.
type Grid struct {
	rows, cols int
	expandable bool
	cells      []string // row-major, len rows*cols
}

var _ View = (*Grid)(nil)

// NewGrid creates an empty rows×cols grid with row growth enabled.
// Negative dimensions are treated as zero.
func NewGrid(rows, cols int) *Grid {
	rows, cols = max(rows, 0), max(cols, 0)
	return &Grid{
		rows:       rows,
		cols:       cols,
		expandable: true,
		cells:      make([]string, rows*cols),
	}
}

// Rows returns the current number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the fixed number of columns.
func (g *Grid) Cols() int { return g.cols }

// Expandable reports whether accesses below the last row grow the grid.
func (g *Grid) Expandable() bool { return g.expandable }

// SetExpandable enables or disables automatic row growth.
func (g *Grid) SetExpandable(v bool) { g.expandable = v }

// Get returns the id stored at (x, y), growing the grid first if y is past
// the last row. It fails with *OutOfBoundsError when the access cannot be served.
func (g *Grid) Get(x, y int) (string, error) {
	if err := g.reach(x, y); err != nil {
		return "", err
	}
	return g.cells[y*g.cols+x], nil
}

// At returns the id stored at (x, y) without growing the grid.
func (g *Grid) At(x, y int) string {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return ""
	}
	return g.cells[y*g.cols+x]
}

// SetOrClear updates the cell (x, y) for node n. OpAdd writes n.ID; OpRemove
// clears the cell only when it still holds n.ID, so a stale remove never
// erases an item that has since taken the cell.
func (g *Grid) SetOrClear(n Node, x, y int, op Op) error {
	if err := g.reach(x, y); err != nil {
		return err
	}
	i := y*g.cols + x
	switch op {
	case OpAdd:
		g.cells[i] = n.ID
	case OpRemove:
		if g.cells[i] == n.ID {
			g.cells[i] = ""
		}
	}
	return nil
}

// ExpandRows appends n empty rows. Rows()+n times Cols() must fit in an int;
// cell accesses check this through [Grid.MaxRows] before growing.
func (g *Grid) ExpandRows(n int) {
	if n <= 0 {
		return
	}
	g.cells = append(g.cells, make([]string, n*g.cols)...)
	g.rows += n
}

// Row returns a copy of row y, or nil if y is out of range.
func (g *Grid) Row(y int) []string {
	if y < 0 || y >= g.rows {
		return nil
	}
	return slices.Clone(g.cells[y*g.cols : (y+1)*g.cols])
}

// All yields every cell in row-major order.
func (g *Grid) All() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for i, id := range g.cells {
			if !yield(Cell{X: i % g.cols, Y: i / g.cols, ID: id}) {
				return
			}
		}
	}
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = slices.Clone(g.cells)
	return &c
}

// Equal reports whether g and o have the same dimensions and cell contents.
func (g *Grid) Equal(o *Grid) bool {
	return g.rows == o.rows && g.cols == o.cols && slices.Equal(g.cells, o.cells)
}

// MaxRows returns the largest row count whose cells can still be indexed.
func (g *Grid) MaxRows() int {
	if g.cols == 0 {
		return math.MaxInt
	}
	return math.MaxInt / g.cols
}

// reach makes (x, y) addressable, growing rows if allowed.
func (g *Grid) reach(x, y int) error {
	if x < 0 || y < 0 || x >= g.cols {
		return &OutOfBoundsError{X: x, Y: y}
	}
	if y >= g.rows {
		if !g.expandable || y >= g.MaxRows() {
			return &OutOfBoundsError{X: x, Y: y}
		}
		g.ExpandRows(y - g.rows + 1)
	}
	return nil
}
