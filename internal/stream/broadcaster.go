// Package stream provides the in-process event fan-out used by the engine to
// push market and account events to subscribers (WebSocket clients, the
// Redis event mirror, tests).
package stream

import (
	"log/slog"
	"sync"

	"github.com/quadscalp/futsim/internal/domain"
)

// Subscriber receives published events. Send must not block: a slow consumer
// buffers or drops internally; returning an error means the subscriber is
// dead and will be removed from the registry.
type Subscriber interface {
	ID() string
	Send(event domain.Event) error
}

// Broadcaster fans events out to an ordered set of subscribers. For a single
// Publish call every registered subscriber receives the event in registration
// order; a failing subscriber is dropped without disturbing the others or the
// caller.
type Broadcaster struct {
	mu     sync.Mutex
	subs   []Subscriber
	initFn func() domain.Event
	logger *slog.Logger
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger: logger.With(slog.String("component", "broadcaster")),
	}
}

// SetInit installs the function that produces the one-off init event sent to
// every new subscriber before any live events. A nil function disables the
// init handshake.
func (b *Broadcaster) SetInit(fn func() domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initFn = fn
}

// Subscribe registers a subscriber. The init event, when configured, is
// delivered to it before any subsequently published event.
func (b *Broadcaster) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initFn != nil {
		if err := sub.Send(b.initFn()); err != nil {
			b.logger.Warn("init delivery failed, subscriber not registered",
				slog.String("subscriber", sub.ID()),
				slog.String("error", err.Error()),
			)
			return
		}
	}
	b.subs = append(b.subs, sub)
	b.logger.Debug("subscriber registered",
		slog.String("subscriber", sub.ID()),
		slog.Int("total", len(b.subs)),
	)
}

// Unsubscribe removes a subscriber from the registry. Unknown subscribers are
// ignored.
func (b *Broadcaster) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub)
}

// Publish delivers event to every registered subscriber in registration
// order. Subscribers whose Send fails are removed; delivery to the remaining
// subscribers always completes and nothing is surfaced to the caller.
func (b *Broadcaster) Publish(event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var failed []Subscriber
	for _, sub := range b.subs {
		if err := sub.Send(event); err != nil {
			b.logger.Warn("dropping subscriber",
				slog.String("subscriber", sub.ID()),
				slog.String("event", string(event.Kind())),
				slog.String("error", err.Error()),
			)
			failed = append(failed, sub)
		}
	}
	for _, sub := range failed {
		b.remove(sub)
	}
}

// Count returns the number of registered subscribers.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// remove deletes a subscriber preserving registration order. Caller holds mu.
func (b *Broadcaster) remove(sub Subscriber) {
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
