package file_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/adapters/file"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunStateStoreContract(t, store)
}

func TestFileStore_PrincipalsWithSeparators(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	// Principal strings carry a "kind:id" prefix that must not leak into
	// the filesystem path.
	principal := domain.ConversationPrincipal("team/general")
	require.NoError(t, store.Save(ctx, principal, domain.StateBag{"v": 1}))

	loaded, err := store.Load(ctx, principal)
	require.NoError(t, err)
	assert.NotNil(t, loaded["v"])

	principals, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, principals, principal)
}

func TestFileStore_DeleteMissingIsNoop(t *testing.T) {
	store := file.New(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), domain.UserPrincipal("ghost")))
}
