package grid

import (
	"slices"

	"github.com/google/uuid"
)

// Listener receives the full change-set of each committed engine call.
// Listeners run synchronously on the caller's goroutine and must not block
// or call back into the engine that notified them.
type Listener func(ChangeSet)

type listenerEntry struct {
	id string
	fn Listener
}

// EventBus dispatches change-sets to registered listeners in registration order.
type EventBus struct {
	listeners []listenerEntry
}

// AddListener registers fn and returns an id for [EventBus.RemoveListener].
func (b *EventBus) AddListener(fn Listener) string {
	id := uuid.NewString()
	b.listeners = append(b.listeners, listenerEntry{id: id, fn: fn})
	return id
}

// RemoveListener unregisters the listener with the given id and reports
// whether it was registered.
func (b *EventBus) RemoveListener(id string) bool {
	n := len(b.listeners)
	b.listeners = slices.DeleteFunc(b.listeners, func(l listenerEntry) bool { return l.id == id })
	return len(b.listeners) != n
}

// Len returns the number of registered listeners.
func (b *EventBus) Len() int { return len(b.listeners) }

// Emit calls every listener with cs. Each listener gets its own copy of the
// change slice; listeners added or removed during dispatch take effect on the
// next Emit.
func (b *EventBus) Emit(cs ChangeSet) {
	for _, l := range slices.Clone(b.listeners) {
		l.fn(ChangeSet{Changes: slices.Clone(cs.Changes)})
	}
}
