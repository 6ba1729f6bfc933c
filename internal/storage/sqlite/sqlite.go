// Package sqlite keeps the store in a local SQLite file. Change events are
// delivered to subscribers in this process only.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cv-navigator/internal/storage"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER,
	updated_at TEXT NOT NULL
)`

type Store struct {
	db     *sql.DB
	broker *storage.Broker
	logger *zap.Logger
	now    func() time.Time
}

func New(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger = logger.Named("sqlite")
	logger.Info("opened SQLite store", zap.String("path", path))

	return &Store{
		db:     db,
		broker: storage.NewBroker(logger),
		logger: logger,
		now:    time.Now,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value   []byte
		expires sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to get key",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get key: %w", err)
	}

	if expires.Valid && s.now().UnixMilli() >= expires.Int64 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ? AND expires_at = ?`, key, expires.Int64); err != nil {
			s.logger.Warn("failed to purge expired key", zap.String("key", key), zap.Error(err))
		}
		return nil, storage.ErrNotFound
	}

	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()

	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, value, expires, now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Error("failed to set key",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("set key: %w", err)
	}

	s.broker.Publish(storage.Event{Key: key, Op: storage.OpSet, At: now})
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		s.logger.Error("failed to delete key",
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("delete key: %w", err)
	}

	s.broker.Publish(storage.Event{Key: key, Op: storage.OpDelete, At: s.now()})
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		s.logger.Error("failed to clear store", zap.Error(err))
		return fmt.Errorf("clear store: %w", err)
	}

	s.logger.Warn("store cleared - all data deleted")
	s.broker.Publish(storage.Event{Op: storage.OpClear, At: s.now()})
	return nil
}

func (s *Store) Subscribe(ctx context.Context) <-chan storage.Event {
	return s.broker.Subscribe(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	s.broker.Close()
	return s.db.Close()
}
