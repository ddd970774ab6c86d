package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*BoltStorage)(nil)

func TestBoltStorage(t *testing.T) {
	s, err := OpenBoltStorage(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set("a", []byte("one"), time.Minute))
	require.NoError(t, s.Set("b", []byte("two"), 0))

	v, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	now = now.Add(2 * time.Minute)
	v, err = s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = s.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)

	v, err = s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Reset())
	v, _ = s.Get("b")
	assert.Nil(t, v)
}
