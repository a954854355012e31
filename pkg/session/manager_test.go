package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/pkg/ports"
	"github.com/parleykit/parley/pkg/session"
)

func TestManager_SerializesSameConversation(t *testing.T) {
	manager := session.NewManager()
	ctx := context.Background()

	var mu sync.Mutex
	var inFlight, maxInFlight int
	counter := 0

	var wg sync.WaitGroup
	turns := 10
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.RunTurn(ctx, "conv-1", func(ctx context.Context) error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				// Read-modify-write that would lose updates without the lock.
				local := counter
				time.Sleep(2 * time.Millisecond)
				counter = local + 1

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight, "turns of one conversation must never overlap")
	assert.Equal(t, turns, counter)
}

func TestManager_ConversationsRunInParallel(t *testing.T) {
	manager := session.NewManager()
	ctx := context.Background()

	release := make(chan struct{})
	entered := make(chan string, 2)

	var wg sync.WaitGroup
	for _, conv := range []string{"conv-a", "conv-b"} {
		wg.Add(1)
		go func(conv string) {
			defer wg.Done()
			_ = manager.RunTurn(ctx, conv, func(ctx context.Context) error {
				entered <- conv
				<-release
				return nil
			})
		}(conv)
	}

	// Both turns enter their critical sections before either finishes.
	for i := 0; i < 2; i++ {
		select {
		case <-entered:
		case <-time.After(time.Second):
			t.Fatal("conversations blocked each other")
		}
	}
	close(release)
	wg.Wait()
}

// fakeLocker records lock/unlock pairs for assertions.
type fakeLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
	lockErr  error
}

func (l *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lockErr != nil {
		return nil, l.lockErr
	}
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked = append(l.unlocked, key)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &fakeLocker{}
	manager := session.NewManager(session.WithLocker(locker))

	err := manager.RunTurn(context.Background(), "conv-1", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"conv-1"}, locker.locked)
	assert.Equal(t, []string{"conv-1"}, locker.unlocked)
}

func TestManager_DistributedLockerFailure(t *testing.T) {
	locker := &fakeLocker{lockErr: errors.New("lock held elsewhere")}
	manager := session.NewManager(session.WithLocker(locker))

	ran := false
	err := manager.RunTurn(context.Background(), "conv-1", func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, ran, "turn must not run without the distributed lock")
}
