// Package session serializes turn processing per conversation. A host hands
// every inbound activity to the Manager, which guarantees that turns for the
// same conversation run one at a time while different conversations proceed
// in parallel.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// TurnFunc processes one inbound activity under the conversation's lock.
type TurnFunc func(ctx context.Context) error

// Manager queues turns per conversation. It uses reference counting to
// garbage collect locks for conversations with no turns in flight.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker // optional, for multi-replica hosts
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking, so replicas of the same bot never
// process two turns of one conversation concurrently.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides the distributed lock's time to live.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a turn serialization manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock entry.mu and call release(conversation) after
// unlocking.
func (m *Manager) acquire(conversation string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[conversation]
	if !exists {
		entry = &lockEntry{}
		m.locks[conversation] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(conversation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[conversation]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, conversation)
	}
}

// RunTurn executes fn while holding the conversation's lock. Turns for the
// same conversation are strictly ordered; other conversations are
// unaffected.
func (m *Manager) RunTurn(ctx context.Context, conversation string, fn TurnFunc) error {
	entry := m.acquire(conversation)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(conversation)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, conversation, m.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"conversation", conversation,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
