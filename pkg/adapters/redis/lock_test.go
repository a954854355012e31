package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "parley:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("parley:lock:conv-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("parley:lock:conv-1"))
}

func TestLocker_BlocksUntilReleased(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "parley:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)

	// Second acquisition of the same key times out while the first holds it.
	shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "conv-1", 5*time.Second)
	assert.Error(t, err)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_IndependentKeys(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "parley:")
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "conv-a", 5*time.Second)
	require.NoError(t, err)
	unlockB, err := locker.Lock(ctx, "conv-b", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlockA(ctx))
	require.NoError(t, unlockB(ctx))
}
