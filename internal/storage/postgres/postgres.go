// Package postgres stores keys in a PostgreSQL table. Writes are announced
// with pg_notify so every process sharing the database sees them.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cv-navigator/internal/storage"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	table         = "kv_store"
	notifyChannel = "kv_store_events"
)

const schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		expires_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type Store struct {
	conn     *dbr.Connection
	sess     *dbr.Session
	listener *pq.Listener
	broker   *storage.Broker
	logger   *zap.Logger
	done     chan struct{}
}

type row struct {
	Value     []byte       `db:"value"`
	ExpiresAt dbr.NullTime `db:"expires_at"`
}

func New(dsn string, logger *zap.Logger) (*Store, error) {
	logger = logger.Named("postgres")

	conn, err := dbr.Open("postgres", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// set up connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sess := conn.NewSession(nil)
	if _, err := sess.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to listen for changes: %w", err)
	}

	logger.Info("successfully connected to PostgreSQL")

	s := &Store{
		conn:     conn,
		sess:     sess,
		listener: listener,
		broker:   storage.NewBroker(logger),
		logger:   logger,
		done:     make(chan struct{}),
	}
	go s.listen()

	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var r row

	err := s.sess.
		Select("value", "expires_at").
		From(table).
		Where("key = ?", key).
		Where("expires_at IS NULL OR expires_at > now()").
		LoadOneContext(ctx, &r)

	if err == dbr.ErrNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to get key",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get key: %w", err)
	}

	return r.Value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expires dbr.NullTime
	if ttl > 0 {
		expires = dbr.NewNullTime(time.Now().Add(ttl))
	}

	query := `
		INSERT INTO kv_store (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.sess.InsertBySql(query, key, value, expires).ExecContext(ctx); err != nil {
		s.logger.Error("failed to set key",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("set key: %w", err)
	}

	s.notify(ctx, storage.Event{Key: key, Op: storage.OpSet, At: time.Now()})
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.sess.DeleteFrom(table).Where("key = ?", key).ExecContext(ctx); err != nil {
		s.logger.Error("failed to delete key",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("delete key: %w", err)
	}

	s.notify(ctx, storage.Event{Key: key, Op: storage.OpDelete, At: time.Now()})
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.sess.DeleteFrom(table).ExecContext(ctx); err != nil {
		s.logger.Error("failed to clear store", zap.Error(err))
		return fmt.Errorf("clear store: %w", err)
	}

	s.logger.Warn("store cleared - all data deleted")
	s.notify(ctx, storage.Event{Op: storage.OpClear, At: time.Now()})
	return nil
}

func (s *Store) Subscribe(ctx context.Context) <-chan storage.Event {
	return s.broker.Subscribe(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) Close() error {
	close(s.done)
	s.broker.Close()
	if err := s.listener.Close(); err != nil {
		s.logger.Warn("failed to close listener", zap.Error(err))
	}
	return s.conn.Close()
}

// notify announces a change to every listening process, this one included.
// The write already succeeded, so a failed notification is only logged.
func (s *Store) notify(ctx context.Context, e storage.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	if _, err := s.sess.ExecContext(ctx, "SELECT pg_notify($1, $2)", notifyChannel, string(payload)); err != nil {
		s.logger.Warn("failed to notify change",
			zap.String("key", e.Key),
			zap.Error(err),
		)
	}
}

func (s *Store) listen() {
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect; notifications may have been missed
			if n == nil {
				continue
			}
			var e storage.Event
			if err := json.Unmarshal([]byte(n.Extra), &e); err != nil {
				s.logger.Warn("bad change notification", zap.String("payload", n.Extra), zap.Error(err))
				continue
			}
			s.broker.Publish(e)
		case <-ping.C:
			if err := s.listener.Ping(); err != nil {
				s.logger.Warn("listener ping failed", zap.Error(err))
			}
		}
	}
}
