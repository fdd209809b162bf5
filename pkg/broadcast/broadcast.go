// Package broadcast publishes committed layout changes to other processes.
//
// An engine's listeners run synchronously and must not fail, so publishing
// is wrapped by [Listener]: publish errors are logged and dropped, and each
// publish is bounded by a timeout.
//
//	pub := broadcast.NewRedisPublisher(client, "gridengine")
//	engine.AddListener(broadcast.Listener(ctx, pub, "dashboard", logger))
package broadcast

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridengine/pkg/grid"
)

// PublishTimeout bounds a single publish made by [Listener].
const PublishTimeout = 2 * time.Second

// Event is the message published for one committed change-set.
type Event struct {
	Layout  string        `json:"layout"`
	Changes []grid.Change `json:"changes"`
	Time    time.Time     `json:"time"`
}

// NewEvent stamps cs for layout with the current time.
func NewEvent(layout string, cs grid.ChangeSet) Event {
	return Event{Layout: layout, Changes: cs.Changes, Time: time.Now().UTC()}
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Listener adapts pub into an engine listener for the named layout.
func Listener(ctx context.Context, pub Publisher, layout string, logger *log.Logger) grid.Listener {
	if logger == nil {
		logger = log.Default()
	}
	return func(cs grid.ChangeSet) {
		ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
		defer cancel()
		if err := pub.Publish(ctx, NewEvent(layout, cs)); err != nil {
			logger.Warn("publish failed", "layout", layout, "changes", cs.Len(), "err", err)
		}
	}
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// LogPublisher writes every event to a logger at info level.
type LogPublisher struct {
	Logger *log.Logger
}

// NewLogPublisher creates a publisher logging to logger (or the default logger).
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPublisher{Logger: logger}
}

// Publish logs ev.
func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.Logger.Info("layout changed",
		"layout", ev.Layout,
		"changes", grid.ChangeSet{Changes: ev.Changes}.String())
	return nil
}

// Close does nothing.
func (p *LogPublisher) Close() error { return nil }

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*LogPublisher)(nil)
)
