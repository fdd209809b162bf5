// Package grid places rectangular items on a fixed-width, vertically growable
// grid and keeps them from overlapping.
//
// The package is the layout core behind dashboard-style widget grids: panels
// are added, dragged and removed, and every structural change is reported to
// listeners as one ordered [ChangeSet] per call.
//
// # Components
//
//   - [Node]: an item id plus the half-open rectangle [X, X+W) × [Y, Y+H) it covers.
//   - [Grid]: a matrix of item-id references with a fixed column count and a
//     row count that grows on demand.
//   - [Registry]: the authoritative id → Node map.
//   - [Engine]: orchestrates add, move and remove, runs collision detection
//     and cascading resolution, and commits each call's change-set.
//   - [EventBus]: synchronous, in-order listener dispatch after every commit.
//
// # Collision Resolution
//
// When an item is added or moved onto occupied cells, every item it collides
// with is pushed straight down to the row just below the incoming item
// (collided.X, y + incoming.H). A pushed item may in turn collide with others,
// which are pushed below it, and so on until no collisions remain. Items are
// never moved sideways or up. The resulting layout is valid, not minimal.
//
// Planning happens entirely against disposable clones of the grid; the live
// grid and registry are only touched by the commit step, which applies the
// whole change-set or nothing.
//
// # Consistency
//
// Every non-empty cell holds the id of a registered item whose rectangle
// contains that cell. [Engine.CheckConsistency] verifies this on live state
// and [Snapshot.Validate] on persisted state.
//
// # Example
//
//	e := grid.New(10, 12)
//	e.AddListener(func(cs grid.ChangeSet) {
//	    fmt.Println(cs)
//	})
//	if _, err := e.AddItem("a", 2, 2, 2, 4); err != nil {
//	    return err
//	}
//	if err := e.MoveItem("a", 4, 4); err != nil {
//	    return err
//	}
//
// An Engine is not safe for concurrent use; callers that share one across
// goroutines must serialise access.
package grid
