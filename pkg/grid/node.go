package grid

import (
	"fmt"
	"iter"
)

// Node is an item placed on the grid: an id plus the half-open rectangle
// [X, X+W) × [Y, Y+H). A node with W or H equal to zero covers no cells.
//
// Node is a value type. The id never changes during an item's lifetime; a
// move replaces the geometry by registering a new Node with the same id.
type Node struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	W  int    `json:"w"`
	H  int    `json:"h"`
}

// NewNode returns a node with the given id and geometry.
func NewNode(id string, x, y, w, h int) Node {
	return Node{ID: id, X: x, Y: y, W: w, H: h}
}

// At returns a copy of n positioned at (x, y).
func (n Node) At(x, y int) Node {
	n.X, n.Y = x, y
	return n
}

// Empty reports whether n covers no cells.
func (n Node) Empty() bool { return n.W <= 0 || n.H <= 0 }

// Contains reports whether the cell (x, y) lies inside n.
func (n Node) Contains(x, y int) bool {
	return x >= n.X && x < n.X+n.W && y >= n.Y && y < n.Y+n.H
}

// Overlaps reports whether n and o share at least one cell.
func (n Node) Overlaps(o Node) bool {
	if n.Empty() || o.Empty() {
		return false
	}
	return n.X < o.X+o.W && o.X < n.X+n.W && n.Y < o.Y+o.H && o.Y < n.Y+n.H
}

// Cells yields every (x, y) cell covered by n. The outer loop walks columns
// and the inner loop walks rows, so (1,2) (1,3) (2,2) (2,3) for a 2×2 node at
// (1,2). Collision ordering and therefore change-set ordering depend on this.
//
// The sequence is finite and can be ranged over any number of times.
func (n Node) Cells() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for x := n.X; x < n.X+n.W; x++ {
			for y := n.Y; y < n.Y+n.H; y++ {
				if !yield(x, y) {
					return
				}
			}
		}
	}
}

// String returns a compact description such as "a@(0,2) 2x2".
func (n Node) String() string {
	return fmt.Sprintf("%s@(%d,%d) %dx%d", n.ID, n.X, n.Y, n.W, n.H)
}

// apply issues one grid write per covered cell and stops at the first failure.
func (n Node) apply(g *Grid, op Op) error {
	for x, y := range n.Cells() {
		if err := g.SetOrClear(n, x, y, op); err != nil {
			return err
		}
	}
	return nil
}
