// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"cv-navigator/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventTimeout = 3 * time.Second

// Run exercises a backend. newStore must return an empty store; Run closes it.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("missing key", func(t *testing.T) {
		s := open(t, newStore)

		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "k", []byte("one"), 0))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "one", string(got))

		require.NoError(t, s.Set(ctx, "k", []byte("two"), 0))
		got, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("ttl expires", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "short", []byte("x"), 100*time.Millisecond))
		require.NoError(t, s.Set(ctx, "long", []byte("y"), time.Hour))

		require.Eventually(t, func() bool {
			_, err := s.Get(ctx, "short")
			return err == storage.ErrNotFound
		}, eventTimeout, 20*time.Millisecond)

		got, err := s.Get(ctx, "long")
		require.NoError(t, err)
		assert.Equal(t, "y", string(got))
	})

	t.Run("delete and clear", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
		require.NoError(t, s.Set(ctx, "c", []byte("3"), 0))

		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Delete(ctx, "a"), "deleting a missing key is not an error")
		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, s.Clear(ctx))
		for _, k := range []string{"b", "c"} {
			_, err := s.Get(ctx, k)
			assert.ErrorIs(t, err, storage.ErrNotFound, k)
		}
	})

	t.Run("json helpers", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		type doc struct {
			Name  string   `json:"name"`
			Items []string `json:"items"`
		}
		in := doc{Name: "cv", Items: []string{"go", "sql"}}
		require.NoError(t, storage.SetJSON(ctx, s, "doc", in, 0))

		var out doc
		require.NoError(t, storage.GetJSON(ctx, s, "doc", &out))
		assert.Equal(t, in, out)

		require.NoError(t, s.Set(ctx, "bad", []byte("{"), 0))
		assert.Error(t, storage.GetJSON(ctx, s, "bad", &out))
	})

	t.Run("change events", func(t *testing.T) {
		s := open(t, newStore)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events := s.Subscribe(ctx)

		require.NoError(t, s.Set(ctx, "watched", []byte("v"), 0))
		e := next(t, events)
		assert.Equal(t, "watched", e.Key)
		assert.Equal(t, storage.OpSet, e.Op)

		require.NoError(t, s.Delete(ctx, "watched"))
		e = next(t, events)
		assert.Equal(t, storage.OpDelete, e.Op)

		require.NoError(t, s.Clear(ctx))
		e = next(t, events)
		assert.Equal(t, storage.OpClear, e.Op)
		assert.Empty(t, e.Key)

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-events:
				return !ok
			default:
				return false
			}
		}, eventTimeout, 10*time.Millisecond)
	})
}

func open(t *testing.T, newStore func(t *testing.T) storage.Store) storage.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func next(t *testing.T, events <-chan storage.Event) storage.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "event channel closed")
		return e
	case <-time.After(eventTimeout):
		require.FailNow(t, "no event received")
		return storage.Event{}
	}
}
