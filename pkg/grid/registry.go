package grid

import (
	"maps"
	"slices"
	"strings"
)

// Registry maps item ids to their current geometry. It is the single source
// of truth for where an item is; the grid only stores id references.
type Registry struct {
	items map[string]Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Node)}
}

// Get returns the node registered under id.
func (r *Registry) Get(id string) (Node, bool) {
	n, ok := r.items[id]
	return n, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.items[id]
	return ok
}

// Put registers n under n.ID, replacing any previous geometry.
func (r *Registry) Put(n Node) { r.items[n.ID] = n }

// Delete unregisters id.
func (r *Registry) Delete(id string) { delete(r.items, id) }

// Len returns the number of registered items.
func (r *Registry) Len() int { return len(r.items) }

// Nodes returns all registered nodes sorted by id.
func (r *Registry) Nodes() []Node {
	nodes := slices.Collect(maps.Values(r.items))
	slices.SortFunc(nodes, func(a, b Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	return &Registry{items: maps.Clone(r.items)}
}
