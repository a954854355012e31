package state_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/state"
)

type profile struct {
	Name   string `json:"name"`
	Visits int    `json:"visits"`
}

func TestProperty_DefaultOnFirstAccess(t *testing.T) {
	s := state.New(memory.NewStore())
	prop := state.NewProperty(s, "profile", func() *profile {
		return &profile{Name: "anonymous"}
	})

	got, err := prop.Get(context.Background(), domain.UserPrincipal("alice"))
	require.NoError(t, err)
	assert.Equal(t, "anonymous", got.Name)
	assert.Zero(t, got.Visits)
}

func TestProperty_SetThenGet(t *testing.T) {
	s := state.New(memory.NewStore())
	prop := state.NewProperty(s, "profile", func() *profile { return &profile{} })
	principal := domain.UserPrincipal("alice")

	require.NoError(t, prop.Set(context.Background(), principal, &profile{Name: "Ada", Visits: 2}))

	got, err := prop.Get(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, &profile{Name: "Ada", Visits: 2}, got)
}

func TestProperty_DecodesJSONShapedValues(t *testing.T) {
	backend := memory.NewStore()
	s := state.New(backend)
	principal := domain.UserPrincipal("alice")

	// Simulate a bag written by another process: values come back from
	// persistence as generic JSON shapes, not Go structs.
	raw, err := json.Marshal(profile{Name: "Ada", Visits: 5})
	require.NoError(t, err)
	var generic any
	require.NoError(t, json.Unmarshal(raw, &generic))
	require.NoError(t, backend.Save(context.Background(), principal, domain.StateBag{"profile": generic}))

	prop := state.NewProperty(s, "profile", func() *profile { return &profile{} })
	got, err := prop.Get(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, &profile{Name: "Ada", Visits: 5}, got)
}

func TestProperty_PrincipalsDoNotShare(t *testing.T) {
	s := state.New(memory.NewStore())
	prop := state.NewProperty(s, "visits", func() int { return 0 })

	require.NoError(t, prop.Set(context.Background(), domain.UserPrincipal("alice"), 7))

	got, err := prop.Get(context.Background(), domain.UserPrincipal("bob"))
	require.NoError(t, err)
	assert.Zero(t, got)
}
