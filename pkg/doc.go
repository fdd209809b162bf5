// Package pkg provides the libraries behind gridengine, a grid layout engine.
//
// # Overview
//
// Items are rectangles on a grid with a fixed number of columns. Placing or
// moving an item onto occupied cells pushes the items underneath straight
// down, and those pushes cascade until nothing overlaps. Every successful
// operation is committed atomically and reported to listeners as one
// ordered change set.
//
// The pkg directory is organized into these areas:
//
//  1. [grid] - The engine: grid, item registry, collision cascade, events
//  2. [script] - The add/mv/rm instruction language and a step runner
//  3. [io] and [store] - JSON documents and pluggable persistence backends
//  4. [render] - Text, DOT, SVG, PDF and PNG output
//  5. [server] and [broadcast] - HTTP API and change-set fan-out
//  6. [errors] and [observability] - Error codes and metrics hooks
//
// # Quick Start
//
//	e := grid.New(10, 12)
//	e.AddListener(func(cs grid.ChangeSet) {
//	    fmt.Println(cs)
//	})
//
//	e.AddItem("a", 0, 0, 2, 2)
//	e.AddItem("b", 0, 0, 2, 2) // [move a (0,0) -> (0,2), add b@(0,0) 2x2]
//	fmt.Print(text.Format(e.Grid(), 1))
//
// Persist a layout:
//
//	s, _ := store.Open(ctx, store.Config{Backend: store.BackendSQLite})
//	layouts := store.NewLayouts(s, nil, 0, logger)
//	layouts.Save(ctx, "office", e)
//
// # Testing
//
//	go test ./...                        # All tests
//	go test -run Example ./pkg/grid      # Examples only
//	go test -tags integration ./pkg/...  # Redis and MongoDB backends
//
// [grid]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/grid
// [script]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/script
// [io]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/io
// [store]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/store
// [render]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/render
// [server]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/server
// [broadcast]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/broadcast
// [errors]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/gridengine/pkg/observability
package pkg
