package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker(zaptest.NewLogger(t))
	defer b.Close()

	ctx := context.Background()
	first := b.Subscribe(ctx)
	second := b.Subscribe(ctx)

	b.Publish(Event{Key: CVKey, Op: OpSet})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case e := <-ch:
			assert.Equal(t, CVKey, e.Key)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker(zaptest.NewLogger(t))
	defer b.Close()

	ch := b.Subscribe(context.Background())
	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(Event{Key: "k", Op: OpSet})
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestBrokerUnsubscribeOnCancel(t *testing.T) {
	b := NewBroker(zaptest.NewLogger(t))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// publishing after the subscriber left must not panic
	b.Publish(Event{Op: OpClear})
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker(zaptest.NewLogger(t))

	ch := b.Subscribe(context.Background())
	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := b.Subscribe(context.Background())
	_, ok = <-late
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "search:3f2a9c0b1d4e", SearchResultsKey("3f2a9c0b1d4e"))
	assert.Equal(t, "ratelimit:user:42", RateLimitKey(42))
	assert.Equal(t, "alerts:seen:-100", AlertSeenKey(-100))
}
