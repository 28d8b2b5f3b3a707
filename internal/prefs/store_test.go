package prefs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-ph/internal/prefs"
	"go.uber.org/zap/zaptest"
)

func exerciseStore(t *testing.T, s prefs.Store) {
	t.Helper()
	ctx := context.Background()

	v, err := s.GetString(ctx, prefs.KeyLastCity, "Manila")
	require.NoError(t, err)
	assert.Equal(t, "Manila", v)

	require.NoError(t, s.PutString(ctx, prefs.KeyLastCity, "Cebu City"))
	v, err = s.GetString(ctx, prefs.KeyLastCity, "Manila")
	require.NoError(t, err)
	assert.Equal(t, "Cebu City", v)

	require.NoError(t, s.PutString(ctx, prefs.KeyLastCity, "Davao City"))
	v, err = s.GetString(ctx, prefs.KeyLastCity, "Manila")
	require.NoError(t, err)
	assert.Equal(t, "Davao City", v)
}

func TestMemoryStore(t *testing.T) {
	s := prefs.NewMemoryStore()
	exerciseStore(t, s)
	require.NoError(t, s.Close())
}

func TestSQLiteStore(t *testing.T) {
	s, err := prefs.NewSQLite(filepath.Join(t.TempDir(), "prefs.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)
	require.NoError(t, s.Close())
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	log := zaptest.NewLogger(t)

	s, err := prefs.NewSQLite(path, log)
	require.NoError(t, err)
	require.NoError(t, s.PutString(context.Background(), prefs.KeyLastCity, "Iloilo City"))
	require.NoError(t, s.Close())

	s, err = prefs.NewSQLite(path, log)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.GetString(context.Background(), prefs.KeyLastCity, "Manila")
	require.NoError(t, err)
	assert.Equal(t, "Iloilo City", v)
}
