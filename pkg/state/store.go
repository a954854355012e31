package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
)

// lockEntry holds a principal's mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Store provides get/set access to per-principal state bags with
// default-on-first-access semantics. It serializes access per principal so
// that default materialization is atomic with the read.
type Store struct {
	backend ports.StateStore

	mu    sync.Mutex
	locks map[domain.Principal]*lockEntry

	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for internal events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over the given persistence backend.
func New(backend ports.StateStore, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		locks:   make(map[domain.Principal]*lockEntry),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying state store.
func (s *Store) Backend() ports.StateStore {
	return s.backend
}

// Get returns the value stored under key for the principal. When the key
// (or the whole bag) is absent, defaultFn supplies the value, which is
// persisted before Get returns (write-on-read).
func (s *Store) Get(ctx context.Context, principal domain.Principal, key string, defaultFn func() any) (any, error) {
	var value any
	err := s.withLock(principal, func() error {
		bag, err := s.loadOrInit(ctx, principal)
		if err != nil {
			return err
		}

		if v, ok := bag[key]; ok {
			value = v
			return nil
		}

		value = defaultFn()
		bag[key] = value
		if err := s.backend.Save(ctx, principal, bag); err != nil {
			return fmt.Errorf("materialize default for %q: %w", key, err)
		}
		s.logger.Debug("materialized default", "principal", principal, "key", key)
		return nil
	})
	return value, err
}

// Set stores value under key for the principal.
func (s *Store) Set(ctx context.Context, principal domain.Principal, key string, value any) error {
	return s.withLock(principal, func() error {
		bag, err := s.loadOrInit(ctx, principal)
		if err != nil {
			return err
		}
		bag[key] = value
		return s.backend.Save(ctx, principal, bag)
	})
}

// Delete removes the principal's entire bag.
func (s *Store) Delete(ctx context.Context, principal domain.Principal) error {
	return s.withLock(principal, func() error {
		return s.backend.Delete(ctx, principal)
	})
}

func (s *Store) loadOrInit(ctx context.Context, principal domain.Principal) (domain.StateBag, error) {
	bag, err := s.backend.Load(ctx, principal)
	if err == nil {
		return bag, nil
	}
	if !errors.Is(err, domain.ErrStateNotFound) {
		return nil, err
	}
	return domain.StateBag{}, nil
}

// withLock executes fn while holding the principal's lock. Entries are
// reference counted and garbage collected when unused.
func (s *Store) withLock(principal domain.Principal, fn func() error) error {
	s.mu.Lock()
	entry, ok := s.locks[principal]
	if !ok {
		entry = &lockEntry{}
		s.locks[principal] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()

		s.mu.Lock()
		entry.refs--
		if entry.refs <= 0 {
			delete(s.locks, principal)
		}
		s.mu.Unlock()
	}()

	return fn()
}
