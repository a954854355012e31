package ports

import (
	"context"

	"github.com/parleykit/parley/pkg/domain"
)

// StateStore persists one state bag per principal. Implementations must
// guarantee isolation: a principal's bag is never visible through another
// principal's key.
type StateStore interface {
	// Save persists the bag for the given principal, replacing any
	// previous contents atomically.
	Save(ctx context.Context, principal domain.Principal, bag domain.StateBag) error

	// Load retrieves the bag for the given principal.
	// Returns domain.ErrStateNotFound if the principal has no bag yet.
	Load(ctx context.Context, principal domain.Principal) (domain.StateBag, error)

	// Delete removes the bag for the given principal.
	Delete(ctx context.Context, principal domain.Principal) error

	// List returns the principals that currently own a bag.
	List(ctx context.Context) ([]domain.Principal, error)
}
