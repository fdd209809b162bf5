package grid

import (
	"fmt"
	"strings"
)

// ChangeKind tags a [Change].
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota + 1
	ChangeRemove
	ChangeMove
)

var changeKindNames = map[ChangeKind]string{
	ChangeAdd:    "add",
	ChangeRemove: "remove",
	ChangeMove:   "move",
}

// String returns "add", "remove" or "move".
func (k ChangeKind) String() string {
	if s, ok := changeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k ChangeKind) MarshalText() ([]byte, error) {
	s, ok := changeKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown change kind %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText decodes a kind name.
func (k *ChangeKind) UnmarshalText(b []byte) error {
	for kind, name := range changeKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown change kind %q", b)
}

// Change is one structural change to the layout.
//
//   - Add: New holds the added node.
//   - Remove: Old holds the node as it was before removal.
//   - Move: Old and New hold the same id with different geometry.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Old  Node       `json:"old,omitzero"`
	New  Node       `json:"new,omitzero"`
}

// AddChange records n being added.
func AddChange(n Node) Change { return Change{Kind: ChangeAdd, New: n} }

// RemoveChange records n being removed.
func RemoveChange(n Node) Change { return Change{Kind: ChangeRemove, Old: n} }

// MoveChange records an item moving from one geometry to another.
func MoveChange(from, to Node) Change { return Change{Kind: ChangeMove, Old: from, New: to} }

// ID returns the id of the item the change applies to.
func (c Change) ID() string {
	if c.Kind == ChangeRemove {
		return c.Old.ID
	}
	return c.New.ID
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeAdd:
		return "add " + c.New.String()
	case ChangeRemove:
		return "remove " + c.Old.String()
	case ChangeMove:
		return fmt.Sprintf("move %s (%d,%d) -> (%d,%d)", c.New.ID, c.Old.X, c.Old.Y, c.New.X, c.New.Y)
	}
	return c.Kind.String()
}

// ChangeSet is the ordered list of changes committed by one engine call.
type ChangeSet struct {
	Changes []Change `json:"changes"`
}

// Len returns the number of changes.
func (cs ChangeSet) Len() int { return len(cs.Changes) }

// IDs returns the item id of every change, in order.
func (cs ChangeSet) IDs() []string {
	ids := make([]string, len(cs.Changes))
	for i, c := range cs.Changes {
		ids[i] = c.ID()
	}
	return ids
}

func (cs ChangeSet) String() string {
	parts := make([]string, len(cs.Changes))
	for i, c := range cs.Changes {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
