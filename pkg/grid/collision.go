package grid

import (
	"github.com/matzehuels/gridengine/pkg/observability"
)

// detectCollisions returns the distinct registered nodes that node would
// overlap if placed at (x, y) on g, in cell enumeration order. Cells holding
// node's own id are not collisions.
//
// Reading g may grow it; g must be a disposable copy.
func (e *Engine) detectCollisions(node Node, x, y int, g *Grid) ([]Node, error) {
	var hits []Node
	seen := make(map[string]bool)

	for cx, cy := range node.At(x, y).Cells() {
		id, err := g.Get(cx, cy)
		if err != nil {
			return nil, err
		}
		if id == "" || id == node.ID || seen[id] {
			continue
		}
		other, ok := e.items.Get(id)
		if !ok {
			return nil, &MismatchedItemError{ID: id}
		}
		seen[id] = true
		hits = append(hits, other)
	}
	return hits, nil
}

// resolveCollisions schedules a downward move for everything node would hit
// at (x, y), cascading through whatever the pushed items hit in turn.
func (e *Engine) resolveCollisions(node Node, x, y int, g *Grid) error {
	return e.plan(placement{node: node, x: x, y: y, grid: g})
}

// scheduleMove clears the destination (x, y) for node and then records the
// move itself. The first recorded move for an id within one call wins; later
// cascades reaching the same item do not override it.
func (e *Engine) scheduleMove(node Node, x, y int, g *Grid) error {
	return e.plan(placement{node: node, x: x, y: y, grid: g, record: true})
}

// placement is one unit of planning work: node is headed for (x, y).
// With grid set it is a resolve step that pushes away colliding nodes; with
// record set (and no grid) it appends the move once the destination is clear.
type placement struct {
	node  Node
	x, y  int
	grid  *Grid
	depth int

	record bool
}

// plan runs collision resolution with an explicit stack instead of recursion.
//
// The stack reproduces the depth-first, post-order schedule of the recursive
// formulation: for each collider c of a resolve step (in detection order),
// c's own collisions are resolved completely before c's move is recorded, and
// only then does the next collider start. Pushing c's record step below its
// resolve step, and colliders in reverse, yields exactly that order.
//
// Every collider of a step at (x, y) is sent to (c.X, y+node.H), evaluated on
// a copy of the step's grid with node's current footprint erased so node never
// collides with itself. Targets strictly increase along any chain and
// planning grids are never written with ids, so the stack always drains.
func (e *Engine) plan(root placement) error {
	var stack []placement
	if root.record {
		stack = append(stack, placement{node: root.node, x: root.x, y: root.y, depth: root.depth, record: true})
	}
	root.record = false
	stack = append(stack, root)

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.record {
			if e.recordMove(p.node, p.x, p.y) && p.depth > 0 {
				observability.Engine().OnCascade(p.node.ID, p.depth)
			}
			continue
		}

		colliders, err := e.detectCollisions(p.node, p.x, p.y, p.grid)
		if err != nil {
			return err
		}
		if len(colliders) == 0 {
			continue
		}

		// Siblings share one scratch copy: child steps clone before erasing,
		// and reads only ever append empty rows.
		scratch := p.grid.Clone()
		if err := p.node.apply(scratch, OpRemove); err != nil {
			return err
		}

		ny := p.y + p.node.H
		for i := len(colliders) - 1; i >= 0; i-- {
			c := colliders[i]
			e.logger.Debug("collision", "node", p.node.ID, "with", c.ID, "push_to", ny, "depth", p.depth+1)
			stack = append(stack,
				placement{node: c, x: c.X, y: ny, depth: p.depth + 1, record: true},
				placement{node: c, x: c.X, y: ny, grid: scratch, depth: p.depth + 1},
			)
		}
	}
	return nil
}

// recordMove appends a Move change unless one is already pending for node,
// and reports whether it did.
func (e *Engine) recordMove(node Node, x, y int) bool {
	for _, c := range e.pending {
		if c.Kind == ChangeMove && c.New.ID == node.ID {
			e.logger.Debug("move already scheduled", "id", node.ID, "skipped_y", y)
			return false
		}
	}
	e.pending = append(e.pending, MoveChange(node, node.At(x, y)))
	e.logger.Debug("schedule move", "id", node.ID, "from_y", node.Y, "to_y", y)
	return true
}
