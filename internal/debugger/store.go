package debugger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/postmortem/internal/event"
	"github.com/dshills/postmortem/internal/logging"
)

// DefaultStoreCapacity is the number of captures kept when no capacity is
// configured.
const DefaultStoreCapacity = 20

// Store holds registries by capture id, evicting the oldest beyond its
// capacity. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	entries  map[string]*Registry
	logger   *logging.Logger
	metrics  *Metrics
	bus      *event.Bus
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store's logger.
func WithStoreLogger(l *logging.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreMetrics sets the metrics sink for stored and evicted captures.
func WithStoreMetrics(m *Metrics) StoreOption {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithStoreBus publishes recorded, evicted and removed captures to b.
func WithStoreBus(b *event.Bus) StoreOption {
	return func(s *Store) {
		s.bus = b
	}
}

// NewStore creates a store keeping at most capacity registries. A
// non-positive capacity uses DefaultStoreCapacity.
func NewStore(capacity int, opts ...StoreOption) *Store {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	s := &Store{
		capacity: capacity,
		entries:  make(map[string]*Registry),
		logger:   logging.Nop(),
		metrics:  NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("store")
	return s
}

// Put adds r, replacing any registry with the same id. The oldest
// registries beyond capacity are evicted and closed.
func (s *Store) Put(r *Registry) {
	s.mu.Lock()
	id := r.ID()
	if old, ok := s.entries[id]; ok {
		s.removeLocked(id)
		if old != r {
			defer closeRegistry(s.logger, old)
		}
	}
	s.entries[id] = r
	s.order = append(s.order, id)
	s.metrics.RecordStored()

	var evicted []*Registry
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		evicted = append(evicted, s.entries[oldest])
		s.removeLocked(oldest)
		s.metrics.RecordEvicted()
	}
	s.mu.Unlock()

	c := r.Capture()
	s.publish(event.TopicCaptureRecorded, id, map[string]any{
		"type":    c.Type,
		"message": c.DisplayMessage(),
		"path":    c.Path,
	})
	for _, e := range evicted {
		s.logger.WithField("capture", e.ID()).Debug("evicted capture")
		closeRegistry(s.logger, e)
		s.publish(event.TopicCaptureEvicted, e.ID(), nil)
	}
}

// Get returns the registry for id.
func (s *Store) Get(id string) (*Registry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.entries[id]
	return r, ok
}

// Lookup returns the registry for id or an error wrapping
// ErrCaptureNotFound.
func (s *Store) Lookup(id string) (*Registry, error) {
	if r, ok := s.Get(id); ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCaptureNotFound, id)
}

// Latest returns the most recently stored registry.
func (s *Store) Latest() (*Registry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, false
	}
	return s.entries[s.order[len(s.order)-1]], true
}

// List returns the stored registries, newest first.
func (s *Store) List() []*Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*Registry, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		list = append(list, s.entries[s.order[i]])
	}
	return list
}

// Len returns the number of stored registries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Capacity returns the maximum number of stored registries.
func (s *Store) Capacity() int {
	return s.capacity
}

// Remove deletes and closes the registry for id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	r, ok := s.entries[id]
	if ok {
		s.removeLocked(id)
	}
	s.mu.Unlock()
	if ok {
		closeRegistry(s.logger, r)
		s.publish(event.TopicCaptureRemoved, id, nil)
	}
	return ok
}

// Close closes every stored registry and empties the store.
func (s *Store) Close() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*Registry)
	s.order = nil
	s.mu.Unlock()

	for _, r := range entries {
		closeRegistry(s.logger, r)
	}
}

// removeLocked drops id from the map and order. Caller holds s.mu.
func (s *Store) removeLocked(id string) {
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func closeRegistry(logger *logging.Logger, r *Registry) {
	if err := r.Close(); err != nil {
		logger.WithError(err).WithField("capture", r.ID()).Warn("closing registry")
	}
}

func (s *Store) publish(topic event.Topic, id string, data map[string]any) {
	if err := s.bus.Publish(context.Background(), event.Event{Topic: topic, CaptureID: id, Data: data}); err != nil {
		s.logger.WithError(err).Warn("publish %s", topic)
	}
}
