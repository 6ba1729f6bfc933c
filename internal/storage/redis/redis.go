// Package redis is the shared storage backend. Changes are published on a
// Pub/Sub channel so that every instance sees them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cv-navigator/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "events"

type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key and the events channel.
	Prefix string
}

type Store struct {
	client *redis.Client
	prefix string
	broker *storage.Broker
	pubsub *redis.PubSub
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) (*Store, error) {
	logger = logger.Named("redis")

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := &Store{
		client: client,
		prefix: opts.Prefix,
		broker: storage.NewBroker(logger),
		logger: logger,
	}

	s.pubsub = client.Subscribe(context.Background(), s.channel())
	if _, err := s.pubsub.Receive(ctx); err != nil {
		s.pubsub.Close()
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel(), err)
	}
	go s.relay()

	logger.Info("successfully connected to Redis", zap.String("prefix", opts.Prefix))

	return s, nil
}

func (s *Store) Close() error {
	s.broker.Close()
	if err := s.pubsub.Close(); err != nil {
		s.logger.Warn("failed to close subscription", zap.Error(err))
	}
	return s.client.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to get key",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get key: %w", err)
	}

	return data, nil
}

// Set saves value with TTL, zero means no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		s.logger.Error("failed to set key",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("set key: %w", err)
	}

	s.publish(ctx, storage.Event{Key: key, Op: storage.OpSet, At: time.Now()})
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		s.logger.Error("failed to delete key",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("delete key: %w", err)
	}

	s.publish(ctx, storage.Event{Key: key, Op: storage.OpDelete, At: time.Now()})
	return nil
}

// Clear removes every key under the prefix. Other data in the same database
// is left alone.
func (s *Store) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			s.logger.Error("failed to scan keys",
				zap.String("prefix", s.prefix),
				zap.Error(err),
			)
			return fmt.Errorf("scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				s.logger.Error("failed to delete keys", zap.Int("count", len(keys)), zap.Error(err))
				return fmt.Errorf("delete keys: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	s.logger.Warn("store cleared - all data deleted", zap.String("prefix", s.prefix))
	s.publish(ctx, storage.Event{Op: storage.OpClear, At: time.Now()})
	return nil
}

func (s *Store) Subscribe(ctx context.Context) <-chan storage.Event {
	return s.broker.Subscribe(ctx)
}

// IncrementWithExpiry increments counter and sets TTL if the key is new
func (s *Store) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.Pipeline()
	incrCmd := pipe.Incr(ctx, s.key(key))
	pipe.ExpireNX(ctx, s.key(key), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("failed to increment with expiry",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0, fmt.Errorf("increment with expiry: %w", err)
	}

	return incrCmd.Val(), nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) channel() string {
	return s.prefix + eventsChannel
}

func (s *Store) publish(ctx context.Context, e storage.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	if err := s.client.Publish(ctx, s.channel(), payload).Err(); err != nil {
		s.logger.Warn("failed to publish change",
			zap.String("key", e.Key),
			zap.Error(err),
		)
	}
}

// relay forwards Pub/Sub messages, including our own, to local subscribers.
func (s *Store) relay() {
	for msg := range s.pubsub.Channel() {
		var e storage.Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			s.logger.Warn("bad change message", zap.String("payload", msg.Payload), zap.Error(err))
			continue
		}
		s.broker.Publish(e)
	}
}
