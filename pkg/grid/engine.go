package grid

import (
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/observability"
)

// Engine owns a grid and its item registry and keeps them consistent across
// add, move and remove calls.
//
// Each public mutator plans its effects against clones of the grid, collects
// an ordered change-set, commits it in one step and then fires exactly one
// event carrying the change-set. Failed calls leave live state untouched and
// fire no event.
//
// The zero value is not usable - use [New] or [FromSnapshot].
type Engine struct {
	grid    *Grid
	items   *Registry
	pending []Change
	events  EventBus
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output about collision planning
// and commits. A nil logger is ignored.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine with an empty rows×cols grid. Rows grow on demand;
// cols is fixed for the engine's lifetime.
func New(rows, cols int, opts ...Option) *Engine {
	return newEngine(NewGrid(rows, cols), NewRegistry(), opts)
}

func newEngine(g *Grid, items *Registry, opts []Option) *Engine {
	e := &Engine{
		grid:   g,
		items:  items,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// Queries
// =============================================================================

// Nodes returns every placed item sorted by id.
func (e *Engine) Nodes() []Node { return e.items.Nodes() }

// Node returns the current geometry of the item with the given id.
func (e *Engine) Node(id string) (Node, bool) { return e.items.Get(id) }

// Len returns the number of placed items.
func (e *Engine) Len() int { return e.items.Len() }

// Grid returns a read-only view of the current grid. Commits replace the
// grid, so a view keeps showing the state it was taken from.
func (e *Engine) Grid() View { return e.grid }

// =============================================================================
// Listeners
// =============================================================================

// AddListener registers fn to receive every committed change-set and returns
// its listener id.
func (e *Engine) AddListener(fn Listener) string { return e.events.AddListener(fn) }

// RemoveListener unregisters a listener and reports whether it existed.
func (e *Engine) RemoveListener(id string) bool { return e.events.RemoveListener(id) }

// =============================================================================
// Mutators
// =============================================================================

// AddItem places a new w×h item at (x, y). Items already covering any of the
// target cells are pushed down, cascading as needed; the new item always
// keeps its requested position.
//
// It fails with *ItemExistsError if id is already placed and with an
// INVALID_INPUT error for an empty id or negative geometry. An item reaching
// past the last column fails with *OutOfBoundsError.
func (e *Engine) AddItem(id string, x, y, w, h int) (Node, error) {
	var added Node
	err := e.run("add", id, func() error {
		if err := gerrors.ValidateItemID(id); err != nil {
			return err
		}
		if err := validateGeometry(x, y, w, h); err != nil {
			return err
		}
		if e.items.Has(id) {
			return &ItemExistsError{ID: id}
		}

		node := NewNode(id, x, y, w, h)
		if err := e.resolveCollisions(node, x, y, e.grid.Clone()); err != nil {
			return err
		}
		e.pending = append(e.pending, AddChange(node))

		if err := e.commit(); err != nil {
			return err
		}

		n, ok := e.items.Get(id)
		if !ok {
			return &MismatchedItemError{ID: id}
		}
		added = n
		return nil
	})
	return added, err
}

// MoveItem moves an existing item so its top-left corner is at (x, y),
// pushing down whatever it lands on.
//
// It fails with *ItemNotFoundError if id is not placed.
func (e *Engine) MoveItem(id string, x, y int) error {
	return e.run("move", id, func() error {
		node, ok := e.items.Get(id)
		if !ok {
			return &ItemNotFoundError{ID: id}
		}
		if err := validateGeometry(x, y, node.W, node.H); err != nil {
			return err
		}

		if err := e.scheduleMove(node, x, y, e.grid.Clone()); err != nil {
			return err
		}
		return e.commit()
	})
}

// RemoveItem removes an item and returns its last geometry. Other items are
// not moved to fill the gap.
//
// It fails with *ItemNotFoundError if id is not placed.
func (e *Engine) RemoveItem(id string) (Node, error) {
	var removed Node
	err := e.run("remove", id, func() error {
		node, ok := e.items.Get(id)
		if !ok {
			return &ItemNotFoundError{ID: id}
		}
		e.pending = append(e.pending, RemoveChange(node))
		if err := e.commit(); err != nil {
			return err
		}
		removed = node
		return nil
	})
	return removed, err
}

// run wraps one public call: it always drains the pending change-set and
// reports the outcome to the logger and the engine hooks.
func (e *Engine) run(op, id string, fn func() error) error {
	start := time.Now()
	err := fn()

	changes := len(e.pending)
	e.pending = e.pending[:0]
	if err != nil {
		changes = 0
		e.logger.Debug("layout operation failed", "op", op, "id", id, "err", err)
	} else {
		e.logger.Debug("layout operation committed", "op", op, "id", id, "changes", changes)
	}

	observability.Engine().OnOperation(op, id, changes, time.Since(start), err)
	return err
}

// =============================================================================
// Commit
// =============================================================================

// commit applies the pending change-set and notifies listeners.
//
// Changes are applied in order to copies of the grid and registry; the live
// structures are replaced only after every change succeeded, so a failure
// part-way through leaves the engine exactly as it was.
//
//   - Add writes the footprint, then registers the node.
//   - Remove clears the footprint (cells now owned by other ids are kept),
//     then unregisters the node.
//   - Move clears the old footprint, registers the new geometry, then writes
//     the new footprint.
func (e *Engine) commit() error {
	g := e.grid.Clone()
	items := e.items.Clone()

	for _, c := range e.pending {
		if err := applyChange(g, items, c); err != nil {
			e.logger.Debug("commit aborted", "change", c, "err", err)
			return err
		}
	}

	e.grid, e.items = g, items
	e.events.Emit(ChangeSet{Changes: slices.Clone(e.pending)})
	return nil
}

func applyChange(g *Grid, items *Registry, c Change) error {
	switch c.Kind {
	case ChangeAdd:
		if err := c.New.apply(g, OpAdd); err != nil {
			return err
		}
		items.Put(c.New)
	case ChangeRemove:
		if err := c.Old.apply(g, OpRemove); err != nil {
			return err
		}
		items.Delete(c.Old.ID)
	case ChangeMove:
		if err := c.Old.apply(g, OpRemove); err != nil {
			return err
		}
		items.Put(c.New)
		if err := c.New.apply(g, OpAdd); err != nil {
			return err
		}
	default:
		return gerrors.New(gerrors.ErrCodeInternal, "unknown change kind %v", c.Kind)
	}
	return nil
}

func validateGeometry(x, y, w, h int) error {
	if x < 0 || y < 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "position must not be negative: (%d, %d)", x, y)
	}
	if w < 0 || h < 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "size must not be negative: %dx%d", w, h)
	}
	if x > math.MaxInt-w || y > math.MaxInt-h {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "item at (%d, %d) size %dx%d overflows the grid", x, y, w, h)
	}
	return nil
}
