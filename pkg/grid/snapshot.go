package grid

import (
	"fmt"
	"maps"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

// Snapshot is a self-contained copy of an engine's grid cells and item
// registry. Restoring a snapshot with [FromSnapshot] reproduces both exactly.
type Snapshot struct {
	Rows       int             `json:"rows"`
	Cols       int             `json:"cols"`
	CanExpandY bool            `json:"can_expand_y"`
	Cells      [][]string      `json:"cells"` // row-major, "" = empty
	Items      map[string]Node `json:"items"`
}

// Snapshot copies the live grid and registry.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Rows:       e.grid.Rows(),
		Cols:       e.grid.Cols(),
		CanExpandY: e.grid.Expandable(),
		Cells:      make([][]string, e.grid.Rows()),
		Items:      maps.Clone(e.items.items),
	}
	for y := range s.Cells {
		s.Cells[y] = e.grid.Row(y)
	}
	if s.Items == nil {
		s.Items = map[string]Node{}
	}
	return s
}

// FromSnapshot rebuilds an engine from s. The snapshot must pass
// [Snapshot.Validate]; otherwise an INVALID_SNAPSHOT error is returned.
func FromSnapshot(s Snapshot, opts ...Option) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	g := NewGrid(s.Rows, s.Cols)
	g.SetExpandable(s.CanExpandY)
	for y, row := range s.Cells {
		copy(g.cells[y*g.cols:(y+1)*g.cols], row)
	}

	items := NewRegistry()
	for _, n := range s.Items {
		items.Put(n)
	}
	return newEngine(g, items, opts), nil
}

// Validate checks the snapshot's shape and the grid/registry consistency
// invariant: every non-empty cell names a registered item whose rectangle
// contains the cell.
func (s Snapshot) Validate() error {
	if err := gerrors.ValidateDimensions(s.Rows, s.Cols); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInvalidSnapshot, err, "bad dimensions")
	}
	if len(s.Cells) != s.Rows {
		return gerrors.New(gerrors.ErrCodeInvalidSnapshot, "cells has %d rows, want %d", len(s.Cells), s.Rows)
	}
	for y, row := range s.Cells {
		if len(row) != s.Cols {
			return gerrors.New(gerrors.ErrCodeInvalidSnapshot, "row %d has %d cells, want %d", y, len(row), s.Cols)
		}
	}

	items := NewRegistry()
	for key, n := range s.Items {
		if key != n.ID {
			return gerrors.New(gerrors.ErrCodeInvalidSnapshot, "item key %q holds node %q", key, n.ID)
		}
		if err := gerrors.ValidateItemID(n.ID); err != nil {
			return gerrors.Wrap(gerrors.ErrCodeInvalidSnapshot, err, "item %q", key)
		}
		if err := validateGeometry(n.X, n.Y, n.W, n.H); err != nil {
			return gerrors.Wrap(gerrors.ErrCodeInvalidSnapshot, err, "item %q", key)
		}
		if !n.Empty() && n.X+n.W > s.Cols {
			return gerrors.New(gerrors.ErrCodeInvalidSnapshot, "item %q exceeds %d columns", key, s.Cols)
		}
		items.Put(n)
	}

	g := &Grid{rows: s.Rows, cols: s.Cols}
	for _, row := range s.Cells {
		g.cells = append(g.cells, row...)
	}
	if err := checkConsistency(g, items); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInvalidSnapshot, err, "inconsistent snapshot")
	}
	return nil
}

// CheckConsistency verifies the grid/registry invariant on live state. A
// failure is always an internal bug: *MismatchedItemError for a cell naming
// an unknown id, INTERNAL_ERROR for a cell outside its item's rectangle.
func (e *Engine) CheckConsistency() error {
	return checkConsistency(e.grid, e.items)
}

func checkConsistency(g *Grid, items *Registry) error {
	for c := range g.All() {
		if c.ID == "" {
			continue
		}
		n, ok := items.Get(c.ID)
		if !ok {
			return &MismatchedItemError{ID: c.ID}
		}
		if !n.Contains(c.X, c.Y) {
			return gerrors.New(gerrors.ErrCodeInternal, "cell (%d,%d) holds %s outside its footprint %s", c.X, c.Y, c.ID, n)
		}
	}
	return nil
}

// String summarises the snapshot for logs.
func (s Snapshot) String() string {
	return fmt.Sprintf("snapshot %dx%d, %d items", s.Rows, s.Cols, len(s.Items))
}
