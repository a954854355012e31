package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
)

// envelopeKey marks a bag as an opaque encrypted envelope.
const envelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new data. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are old keys tried in order when decryption with the
	// active key fails. This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.StateStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts every state bag
// with AES-GCM before it reaches the backend. The backend only ever sees an
// envelope bag with a single base64 ciphertext entry.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, principal domain.Principal, bag domain.StateBag) error {
	plainText, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("marshal state bag: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("encrypt state bag: %w", err)
	}

	envelope := domain.StateBag{
		envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Save(ctx, principal, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, principal domain.Principal) (domain.StateBag, error) {
	envelope, err := m.next.Load(ctx, principal)
	if err != nil {
		return nil, err
	}

	encryptedStr, ok := envelope[envelopeKey].(string)
	if !ok {
		// A configured-encrypted store never accepts plaintext bags; a bag
		// without the envelope marker means corruption or misconfiguration.
		return nil, errors.New("state bag is missing encrypted envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("decrypt state bag: %w", err)
	}

	var bag domain.StateBag
	if err := json.Unmarshal(plainText, &bag); err != nil {
		return nil, fmt.Errorf("unmarshal decrypted state bag: %w", err)
	}
	return bag, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, principal domain.Principal) error {
	return m.next.Delete(ctx, principal)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]domain.Principal, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
