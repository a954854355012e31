package memory_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_DeepCopyOnSave(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	principal := domain.ConversationPrincipal("c1")

	// Nested values mutated after Save must not reach the store.
	nested := map[string]any{"step": "one"}
	require.NoError(t, store.Save(ctx, principal, domain.StateBag{"nested": nested}))
	nested["step"] = "two"

	loaded, err := store.Load(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "one", loaded["nested"].(map[string]any)["step"])

	// Same for pointer values: pushing onto a live stack after Save must
	// not grow the persisted one.
	stack := domain.NewStack()
	require.NoError(t, store.Save(ctx, principal, domain.StateBag{"dialogState": stack}))
	stack.Push(domain.NewFrame("late"))

	loaded, err = store.Load(ctx, principal)
	require.NoError(t, err)

	data, err := json.Marshal(loaded["dialogState"])
	require.NoError(t, err)
	var persisted domain.Stack
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.True(t, persisted.Idle(), "stored stack must be a snapshot, not the live pointer")
}

func TestMemoryStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	principal := domain.UserPrincipal("u1")
	require.NoError(t, store.Save(ctx, principal, domain.StateBag{"title": "Standup"}))

	loaded, err := store.Load(ctx, principal)
	require.NoError(t, err)
	loaded["title"] = "mutated"

	again, err := store.Load(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "Standup", again["title"])
}
