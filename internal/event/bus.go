// Package event publishes debugger lifecycle events to subscribers.
//
// Topics use dot notation and subscriptions may use wildcards:
//
//	capture.*   matches capture.recorded and capture.evicted
//	**          matches everything
//
// Delivery is synchronous in the publisher's goroutine. A handler that
// panics is recovered and counted; other subscribers still receive the
// event. Handlers must not block: a subscriber feeding a slow consumer
// should hand events off through a buffered channel.
package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/postmortem/internal/logging"
)

// Sentinel errors for the event bus.
var (
	// ErrInvalidTopic is returned when a topic is empty or malformed.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// Event is one published occurrence.
type Event struct {
	Topic     Topic          `json:"topic"`
	CaptureID string         `json:"capture_id,omitempty"`
	Time      time.Time      `json:"time"`
	Data      map[string]any `json:"data,omitempty"`
}

// Handler receives events.
type Handler func(ctx context.Context, e Event)

// Stats are cumulative bus counters.
type Stats struct {
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Panics      uint64 `json:"panics"`
	Subscribers int    `json:"subscribers"`
}

// Bus fans events out to matching subscriptions. A nil *Bus discards
// everything published to it. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	logger *logging.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	panics    atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger used to report handler panics.
func WithBusLogger(l *logging.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:   make(map[uint64]*Subscription),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithComponent("event")
	return b
}

// Subscribe registers h for topics matching pattern.
func (b *Bus) Subscribe(pattern Topic, h Handler) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{id: b.nextID, pattern: pattern, handler: h, bus: b}
	b.subs[sub.id] = sub
	return sub, nil
}

// Publish delivers e to every matching subscription. A zero Time is set to
// the current time.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b == nil {
		return nil
	}
	if !e.Topic.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, e.Topic)
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.published.Add(1)

	for _, sub := range b.matching(e.Topic) {
		b.deliver(ctx, sub, e)
	}
	return nil
}

// matching returns the active subscriptions for topic in subscription
// order.
func (b *Bus) matching(topic Topic) []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var subs []*Subscription
	for _, sub := range b.subs {
		if topic.Matches(sub.pattern) {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	return subs
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.WithField("topic", e.Topic).Error("subscriber %d panicked: %v", sub.id, r)
		}
	}()
	sub.handler(ctx, e)
	b.delivered.Add(1)
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Panics:      b.panics.Load(),
		Subscribers: n,
	}
}

// Subscription is a registered handler.
type Subscription struct {
	id      uint64
	pattern Topic
	handler Handler
	bus     *Bus
}

// Topic returns the subscribed pattern.
func (s *Subscription) Topic() Topic {
	return s.pattern
}

// Cancel stops delivery to the subscription. It is safe to call more than
// once.
func (s *Subscription) Cancel() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
}
