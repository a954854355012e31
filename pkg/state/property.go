package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parleykit/parley/pkg/domain"
)

// Property is a typed accessor for one key of a principal's state bag, with
// a default policy supplied at construction. It replaces ad-hoc closures
// captured per property: the key schema and its default live together.
type Property[T any] struct {
	store     *Store
	key       string
	defaultFn func() T
}

// NewProperty declares a typed property under key with the given default.
func NewProperty[T any](store *Store, key string, defaultFn func() T) *Property[T] {
	return &Property[T]{store: store, key: key, defaultFn: defaultFn}
}

// Key returns the bag key this property reads and writes.
func (p *Property[T]) Key() string {
	return p.key
}

// Get returns the typed value for the principal, materializing and
// persisting the default on first access.
func (p *Property[T]) Get(ctx context.Context, principal domain.Principal) (T, error) {
	var zero T

	raw, err := p.store.Get(ctx, principal, p.key, func() any { return p.defaultFn() })
	if err != nil {
		return zero, err
	}

	if v, ok := raw.(T); ok {
		return v, nil
	}

	// Stored values round-trip through JSON, so a struct written by one
	// process may come back as map[string]any. Re-decode into T.
	data, err := json.Marshal(raw)
	if err != nil {
		return zero, fmt.Errorf("decode property %q: %w", p.key, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("decode property %q: %w", p.key, err)
	}
	return out, nil
}

// Set stores the typed value for the principal.
func (p *Property[T]) Set(ctx context.Context, principal domain.Principal, value T) error {
	return p.store.Set(ctx, principal, p.key, value)
}
