package store

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "kv.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&KVEntry{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(db)
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { s.Close() })
	return s
}

// runContract exercises the behaviour every Store must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get_missing_returns_not_found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "absent")
		assert.True(t, IsNotFound(err))
	})

	t.Run("set_then_get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "savedJobs", `["1","2"]`))

		v, err := s.Get(ctx, "savedJobs")
		require.NoError(t, err)
		assert.Equal(t, `["1","2"]`, v)
	})

	t.Run("set_overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "first"))
		require.NoError(t, s.Set(ctx, "k", "second"))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", v)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Remove(ctx, "k"))

		_, err := s.Get(ctx, "k")
		assert.True(t, IsNotFound(err))
	})

	t.Run("remove_missing_is_not_an_error", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Remove(ctx, "never-set"))
	})

	t.Run("keys_by_prefix", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "applicationDraft_1", "a"))
		require.NoError(t, s.Set(ctx, "applicationDraft_2", "b"))
		require.NoError(t, s.Set(ctx, "savedJobs", "c"))

		keys, err := s.Keys(ctx, "applicationDraft_")
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{"applicationDraft_1", "applicationDraft_2"}, keys)
	})

	t.Run("prefixed_namespaces_are_disjoint", func(t *testing.T) {
		s := newStore(t)
		a := WithPrefix(s, "session:a:")
		b := WithPrefix(s, "session:b:")

		require.NoError(t, a.Set(ctx, "savedJobs", "A"))
		require.NoError(t, b.Set(ctx, "savedJobs", "B"))

		va, err := a.Get(ctx, "savedJobs")
		require.NoError(t, err)
		vb, err := b.Get(ctx, "savedJobs")
		require.NoError(t, err)
		assert.Equal(t, "A", va)
		assert.Equal(t, "B", vb)

		keys, err := a.Keys(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"savedJobs"}, keys)

		raw, err := s.Get(ctx, "session:a:savedJobs")
		require.NoError(t, err)
		assert.Equal(t, "A", raw)
	})
}

func TestMemoryStore(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return NewMemoryStore(0) })
}

func TestGormStore(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return newGormStore(t) })
}

func TestRedisStore(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return newRedisStore(t) })
}

func TestGormStore_PrefixWithLikeWildcards(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)

	require.NoError(t, s.Set(ctx, "a_b", "1"))
	require.NoError(t, s.Set(ctx, "axb", "2"))

	keys, err := s.Keys(ctx, "a_")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b"}, keys)
}

func TestMemoryStore_Quota(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)

	require.NoError(t, s.Set(ctx, "k", "12345"))
	assert.Equal(t, int64(6), s.Used())

	err := s.Set(ctx, "big", "1234567890")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = s.Get(ctx, "big")
	assert.True(t, IsNotFound(err))

	// Overwriting reuses the old entry's bytes.
	require.NoError(t, s.Set(ctx, "k", "123456789"))
	assert.Equal(t, int64(10), s.Used())

	require.NoError(t, s.Remove(ctx, "k"))
	assert.Equal(t, int64(0), s.Used())
}
