package broadcast

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

// DefaultChannel is the channel prefix used when none is configured.
const DefaultChannel = "gridengine"

// RedisPublisher publishes events as JSON on the channel
// "<prefix>:<layout>" with Redis PUBLISH.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher creates a publisher on client. The publisher does not own
// the client; Close is a no-op.
func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannel
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the channel events for layout are published on.
func (p *RedisPublisher) Channel(layout string) string {
	return p.prefix + ":" + layout
}

// Publish sends ev to its layout's channel.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInternal, err, "encode event")
	}
	if err := p.client.Publish(ctx, p.Channel(ev.Layout), data).Err(); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeNetwork, err, "publish %s", p.Channel(ev.Layout))
	}
	return nil
}

// Close does nothing; the client belongs to the caller.
func (p *RedisPublisher) Close() error { return nil }

// Subscribe delivers events for layout until ctx ends. Use "*" to receive
// every layout. Messages that fail to decode are logged and skipped. The
// returned channel is closed when the subscription ends.
func (p *RedisPublisher) Subscribe(ctx context.Context, layout string, logger *log.Logger) (<-chan Event, error) {
	if logger == nil {
		logger = log.Default()
	}
	sub := p.client.PSubscribe(ctx, p.Channel(layout))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, gerrors.Wrap(gerrors.ErrCodeNetwork, err, "subscribe %s", p.Channel(layout))
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Warn("bad event payload", "channel", msg.Channel, "err", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var _ Publisher = (*RedisPublisher)(nil)
