package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cv-navigator/internal/storage"
	"cv-navigator/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := New(filepath.Join(t.TempDir(), "data", "kv.db"), zaptest.NewLogger(t))
		require.NoError(t, err)
		return s
	})
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := New(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, storage.CVKey, []byte(`{"fileName":"cv.pdf"}`), 0))
	require.NoError(t, s.Close())

	s, err = New(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, storage.CVKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fileName":"cv.pdf"}`, string(got))
	assert.NoError(t, s.Ping(ctx))
}

func TestExpiredRowIsPurged(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "kv.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&count))
	assert.Zero(t, count)
}
