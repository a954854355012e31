package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/domain"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the interface contract, including per-principal
// isolation.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	principal := domain.Principal("contract-" + time.Now().Format("20060102150405"))

	t.Run("Save and Load", func(t *testing.T) {
		bag := domain.StateBag{"title": "Morning Standup", "count": 42}

		err := store.Save(ctx, principal, bag)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, principal)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "Morning Standup", loaded["title"])
		// JSON persistence may widen ints to float64; only require presence.
		assert.NotNil(t, loaded["count"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+principal)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Principal Isolation", func(t *testing.T) {
		other := principal + "-other"
		require.NoError(t, store.Save(ctx, principal, domain.StateBag{"who": "a"}))
		require.NoError(t, store.Save(ctx, other, domain.StateBag{"who": "b"}))
		defer func() { _ = store.Delete(ctx, other) }()

		a, err := store.Load(ctx, principal)
		require.NoError(t, err)
		b, err := store.Load(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, "a", a["who"])
		assert.Equal(t, "b", b["who"])
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, principal, domain.StateBag{"old": true}))
		require.NoError(t, store.Save(ctx, principal, domain.StateBag{"new": true}))

		loaded, err := store.Load(ctx, principal)
		require.NoError(t, err)
		assert.NotContains(t, loaded, "old")
		assert.NotNil(t, loaded["new"])
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, principal, domain.StateBag{"x": 1}))

		err := store.Delete(ctx, principal)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, principal)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")
	})

	t.Run("List", func(t *testing.T) {
		p1 := principal + "-1"
		p2 := principal + "-2"
		_ = store.Save(ctx, p1, domain.StateBag{})
		_ = store.Save(ctx, p2, domain.StateBag{})
		defer func() {
			_ = store.Delete(ctx, p1)
			_ = store.Delete(ctx, p2)
		}()

		principals, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, principals, p1)
		assert.Contains(t, principals, p2)
	})
}
