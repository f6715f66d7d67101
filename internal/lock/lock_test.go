package lock

import (
	"context"
	"os"
	"testing"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	release, err := m.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)

	_, err = m.Acquire(ctx, "sync", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	// Otra key no se bloquea.
	other, err := m.Acquire(ctx, "otro", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	release, err = m.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestMemory_Expired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stale, err := m.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	fresh, err := m.Acquire(ctx, "sync", time.Minute)
	require.NoError(t, err)

	// El release viejo no libera el lock nuevo.
	require.NoError(t, stale(ctx))
	_, err = m.Acquire(ctx, "sync", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)
	require.NoError(t, fresh(ctx))
}

func TestRedis_AcquireRelease(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR no seteado")
	}
	ctx := context.Background()
	client := rdb.NewClient(&rdb.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	l := NewRedis(client, "viajes-test:")
	release, err := l.Acquire(ctx, t.Name(), 5*time.Second)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, t.Name(), 5*time.Second)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, release(ctx))
	release, err = l.Acquire(ctx, t.Name(), 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}
