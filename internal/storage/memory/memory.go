// Package memory is an in-process storage backend for tests and for running
// without any external service.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"cv-navigator/internal/storage"

	"go.uber.org/zap"
)

type entry struct {
	value   []byte
	expires time.Time
}

type Store struct {
	mu     sync.RWMutex
	data   map[string]entry
	broker *storage.Broker
	now    func() time.Time
}

func New(logger *zap.Logger) *Store {
	return &Store{
		data:   make(map[string]entry),
		broker: storage.NewBroker(logger.Named("memory")),
		now:    time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()

	s.broker.Publish(storage.Event{Key: key, Op: storage.OpSet, At: s.now()})
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	s.broker.Publish(storage.Event{Key: key, Op: storage.OpDelete, At: s.now()})
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.data = make(map[string]entry)
	s.mu.Unlock()

	s.broker.Publish(storage.Event{Op: storage.OpClear, At: s.now()})
	return nil
}

func (s *Store) Subscribe(ctx context.Context) <-chan storage.Event {
	return s.broker.Subscribe(ctx)
}

// IncrementWithExpiry increments the counter and sets the TTL if the key is new.
func (s *Store) IncrementWithExpiry(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	e, ok := s.data[key]
	if ok && !s.expired(e) {
		n = decodeCounter(e.value)
	} else {
		e = entry{expires: s.now().Add(ttl)}
	}
	n++
	e.value = encodeCounter(n)
	s.data[key] = e

	return n, nil
}

func (s *Store) Close() error {
	s.broker.Close()
	return nil
}

func (s *Store) expired(e entry) bool {
	return !e.expires.IsZero() && !s.now().Before(e.expires)
}

func encodeCounter(n int64) []byte {
	return []byte(strconv.FormatInt(n, 10))
}

func decodeCounter(b []byte) int64 {
	n, _ := strconv.ParseInt(string(b), 10, 64)
	return n
}
