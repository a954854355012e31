package state_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/state"
)

func TestStore_GetMaterializesDefault(t *testing.T) {
	backend := memory.NewStore()
	s := state.New(backend)
	principal := domain.UserPrincipal("alice")

	calls := 0
	value, err := s.Get(context.Background(), principal, "profile", func() any {
		calls++
		return map[string]any{"plan": "free"}
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"plan": "free"}, value)
	assert.Equal(t, 1, calls)

	// The default is persisted, not just returned.
	bag, err := backend.Load(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"plan": "free"}, bag["profile"])

	// A second access reads the stored value without re-running the default.
	_, err = s.Get(context.Background(), principal, "profile", func() any {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestStore_SetThenGet(t *testing.T) {
	s := state.New(memory.NewStore())
	principal := domain.ConversationPrincipal("conv-1")

	require.NoError(t, s.Set(context.Background(), principal, "city", "Lisbon"))

	value, err := s.Get(context.Background(), principal, "city", func() any { return "" })
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", value)
}

func TestStore_KeysAreIndependent(t *testing.T) {
	s := state.New(memory.NewStore())
	principal := domain.UserPrincipal("alice")

	require.NoError(t, s.Set(context.Background(), principal, "a", "one"))
	require.NoError(t, s.Set(context.Background(), principal, "b", "two"))

	a, err := s.Get(context.Background(), principal, "a", func() any { return nil })
	require.NoError(t, err)
	b, err := s.Get(context.Background(), principal, "b", func() any { return nil })
	require.NoError(t, err)
	assert.Equal(t, "one", a)
	assert.Equal(t, "two", b)
}

func TestStore_DeleteClearsBag(t *testing.T) {
	s := state.New(memory.NewStore())
	principal := domain.UserPrincipal("alice")

	require.NoError(t, s.Set(context.Background(), principal, "count", 3))
	require.NoError(t, s.Delete(context.Background(), principal))

	calls := 0
	value, err := s.Get(context.Background(), principal, "count", func() any {
		calls++
		return 0
	})
	require.NoError(t, err)
	assert.Equal(t, 0, value)
	assert.Equal(t, 1, calls, "deleted bags materialize defaults again")
}

func TestStore_ConcurrentDefaultMaterializesOnce(t *testing.T) {
	s := state.New(memory.NewStore())
	principal := domain.UserPrincipal("alice")

	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Get(context.Background(), principal, "profile", func() any {
				mu.Lock()
				calls++
				mu.Unlock()
				return "fresh"
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls, "per-principal locking makes read-or-init atomic")
}
