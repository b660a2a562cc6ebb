package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quadscalp/futsim/internal/domain"
)

// publishTimeout bounds each mirror publish so a stalled Redis never backs up
// the drain loop indefinitely.
const publishTimeout = 2 * time.Second

// mirrorBufferSize is the in-memory event buffer between the broadcaster and
// the Redis publisher. Events are dropped when the buffer is full.
const mirrorBufferSize = 256

// EventMirror republishes every broadcast event onto a Redis pub/sub channel
// named "events:{type}", letting consumers outside this process tap the live
// stream. It implements stream.Subscriber: Send is non-blocking and buffers
// into a drain goroutine, so a slow Redis never stalls the engine's fan-out.
type EventMirror struct {
	rdb    *redis.Client
	events chan domain.Event
	done   chan struct{}
	logger *slog.Logger
}

// NewEventMirror creates an EventMirror backed by the given Client. Run must
// be started for events to flow.
func NewEventMirror(c *Client, logger *slog.Logger) *EventMirror {
	return &EventMirror{
		rdb:    c.Underlying(),
		events: make(chan domain.Event, mirrorBufferSize),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("component", "event_mirror")),
	}
}

// ID identifies the mirror in broadcaster logs.
func (m *EventMirror) ID() string {
	return "redis-event-mirror"
}

// Send queues the event for publishing. It never blocks: when the buffer is
// full the event is dropped. After Run has exited, Send reports an error so
// the broadcaster unregisters the mirror.
func (m *EventMirror) Send(event domain.Event) error {
	select {
	case <-m.done:
		return fmt.Errorf("redis: event mirror stopped")
	default:
	}

	select {
	case m.events <- event:
	default:
		m.logger.Warn("mirror buffer full, dropping event",
			slog.String("event", string(event.Kind())),
		)
	}
	return nil
}

// Run drains queued events into Redis until the context is cancelled.
func (m *EventMirror) Run(ctx context.Context) error {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-m.events:
			if err := m.publish(event); err != nil {
				m.logger.Warn("mirror publish failed",
					slog.String("event", string(event.Kind())),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (m *EventMirror) publish(event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal %s event: %w", event.Kind(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	channel := "events:" + string(event.Kind())
	if err := m.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}
