// Package memory provides an in-memory StateStore, suitable for tests and
// single-process hosts.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/parleykit/parley/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.Principal]domain.StateBag
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.Principal]domain.StateBag),
	}
}

// Save persists the bag in memory.
func (s *Store) Save(ctx context.Context, principal domain.Principal, bag domain.StateBag) error {
	// Deep copy on write so later caller mutations, including in-place
	// mutation of nested values, never leak into the store.
	copied, err := deepCopy(bag)
	if err != nil {
		return fmt.Errorf("copy state bag: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[principal] = copied
	return nil
}

// Load retrieves the bag from memory.
func (s *Store) Load(ctx context.Context, principal domain.Principal) (domain.StateBag, error) {
	s.mu.RLock()
	bag, ok := s.data[principal]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrStateNotFound
	}

	// Deep copy on read so the caller can't mutate store contents by
	// reference.
	copied, err := deepCopy(bag)
	if err != nil {
		return nil, fmt.Errorf("copy state bag: %w", err)
	}
	return copied, nil
}

// Delete removes the bag.
func (s *Store) Delete(ctx context.Context, principal domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, principal)
	return nil
}

// List returns the principals that currently own a bag.
func (s *Store) List(ctx context.Context) ([]domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	principals := make([]domain.Principal, 0, len(s.data))
	for p := range s.data {
		principals = append(principals, p)
	}
	return principals, nil
}

// deepCopy round-trips the bag through JSON. Bag values must round-trip
// through JSON anyway (the persistent stores serialize), and the round-trip
// guarantees the copy shares no references with the original, so a bag held
// by a caller is never live inside the store.
func deepCopy(bag domain.StateBag) (domain.StateBag, error) {
	data, err := json.Marshal(bag)
	if err != nil {
		return nil, fmt.Errorf("marshal state bag: %w", err)
	}
	var copied domain.StateBag
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("unmarshal state bag: %w", err)
	}
	return copied, nil
}
