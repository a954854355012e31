package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/persistence/middleware"
	"github.com/parleykit/parley/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secure := mw(underlying)

	ctx := context.Background()
	principal := domain.UserPrincipal("alice")
	original := domain.StateBag{"secret": "my-secret-sauce"}

	if err := secure.Save(ctx, principal, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The backend must only ever see the envelope.
	stored, err := underlying.Load(ctx, principal)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if val, ok := stored["secret"]; ok {
		t.Fatalf("Expected secret to be hidden, found: %v", val)
	}
	if _, ok := stored["__encrypted__"]; !ok {
		t.Fatal("Expected __encrypted__ entry in stored bag")
	}

	loaded, err := secure.Load(ctx, principal)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded["secret"] != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", loaded["secret"])
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	secureOld := mwOld(underlying)

	ctx := context.Background()
	principal := domain.ConversationPrincipal("rotation")

	if err := secureOld.Save(ctx, principal, domain.StateBag{"data": "encrypted-with-old-key"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	secureNew := mwNew(underlying)

	loaded, err := secureNew.Load(ctx, principal)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded["data"] != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	loaded["data"] = "encrypted-with-new-key"
	if err := secureNew.Save(ctx, principal, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	// The old-key-only middleware must no longer be able to read it.
	if _, err := secureOld.Load(ctx, principal); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestChain_OrdersOutsideIn(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.StateStore) ports.StateStore {
			return &taggingStore{name: name, order: &order, next: next}
		}
	}

	store := middleware.Chain(tag("outer"), tag("inner"))(memory.NewStore())
	if err := store.Save(context.Background(), domain.UserPrincipal("u"), domain.StateBag{}); err != nil {
		t.Fatal(err)
	}

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("unexpected middleware order: %v", order)
	}
}

type taggingStore struct {
	name  string
	order *[]string
	next  ports.StateStore
}

func (s *taggingStore) Save(ctx context.Context, p domain.Principal, bag domain.StateBag) error {
	*s.order = append(*s.order, s.name)
	return s.next.Save(ctx, p, bag)
}

func (s *taggingStore) Load(ctx context.Context, p domain.Principal) (domain.StateBag, error) {
	return s.next.Load(ctx, p)
}

func (s *taggingStore) Delete(ctx context.Context, p domain.Principal) error {
	return s.next.Delete(ctx, p)
}

func (s *taggingStore) List(ctx context.Context) ([]domain.Principal, error) {
	return s.next.List(ctx)
}
