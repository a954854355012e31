package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/adapters/sqlite"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, newTestStore(t))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)

	principal := domain.ConversationPrincipal("conv-1")
	require.NoError(t, store.Save(ctx, principal, domain.StateBag{"title": "Standup"}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	bag, err := reopened.Load(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "Standup", bag["title"])
}
