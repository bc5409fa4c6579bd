package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func backends(t *testing.T) map[string]Store {
	t.Helper()

	all := map[string]Store{
		"memory": NewMemory(),
		"sqlite": newTestSQLite(t),
	}
	if url := os.Getenv("CAREERPATH_TEST_REDIS_URL"); url != "" {
		r, err := NewRedis(context.Background(), url, "1m")
		require.NoError(t, err)
		t.Cleanup(func() { _ = r.Close() })
		all["redis"] = r
	}
	return all
}

func TestKeysAreScopedByTestID(t *testing.T) {
	a := Keys("12")
	b := Keys(" 13 ")

	assert.Equal(t, "test_12_answers", a.Answers)
	assert.Equal(t, "test_12_flagged", a.Flagged)
	assert.Equal(t, "test_12_time_left", a.TimeLeft)
	assert.Equal(t, "test_13_answers", b.Answers)
	assert.NotEqual(t, a.All(), b.All())
	assert.Len(t, a.All(), 3)
}

func TestStoreRoundTripAndGroupDelete(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			keys := Keys("round-trip-" + name)
			other := Keys("other-" + name)

			_, ok, err := s.Get(ctx, keys.Answers)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, keys.Answers, `{"1":"a"}`))
			require.NoError(t, s.Set(ctx, keys.Answers, `{"1":"b"}`))
			require.NoError(t, s.Set(ctx, keys.Flagged, `[1]`))
			require.NoError(t, s.Set(ctx, keys.TimeLeft, "120"))
			require.NoError(t, s.Set(ctx, other.TimeLeft, "60"))

			value, ok, err := s.Get(ctx, keys.Answers)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `{"1":"b"}`, value)

			require.NoError(t, s.Delete(ctx, keys.All()...))
			for _, key := range keys.All() {
				_, ok, err := s.Get(ctx, key)
				require.NoError(t, err)
				assert.False(t, ok, "key %s should be gone", key)
			}

			value, ok, err = s.Get(ctx, other.TimeLeft)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "60", value)

			require.NoError(t, s.Delete(ctx, "missing-key"))
			require.NoError(t, s.Delete(ctx))
			require.NoError(t, s.Delete(ctx, other.All()...))
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	first, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "test_1_time_left", "42"))
	require.NoError(t, first.Close())

	second, err := NewSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	value, ok, err := second.Get(ctx, "test_1_time_left")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", value)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Backend: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "localStorage"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: BackendRedis, RedisURL: "not a url"})
	assert.Error(t, err)
}
