// Package luis provides a client for a hosted LUIS-style intent service and
// the connected-service configuration record that describes one.
package luis

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceConfig describes a connected intent recognition service. The two
// key fields are secrets; EncryptKeys replaces them with reversible
// ciphertext so the record can be committed to configuration storage.
type ServiceConfig struct {
	AppID           string `yaml:"app_id"`
	AuthoringKey    string `yaml:"authoring_key"`
	SubscriptionKey string `yaml:"subscription_key"`
	Version         string `yaml:"version"`
	Region          string `yaml:"region"`
}

// LoadServiceConfig reads a connected-service record from a YAML file.
func LoadServiceConfig(path string) (ServiceConfig, error) {
	var cfg ServiceConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read service config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse service config %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes the record to a YAML file.
func (c ServiceConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal service config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write service config %q: %w", path, err)
	}
	return nil
}

// Endpoint returns the service base URL for the configured region.
func (c ServiceConfig) Endpoint() string {
	return fmt.Sprintf("https://%s.api.cognitive.microsoft.com", c.Region)
}

// EncryptKeys encrypts AuthoringKey and SubscriptionKey in place under
// secret. Empty fields stay empty; other fields are left untouched.
func (c *ServiceConfig) EncryptKeys(secret string) error {
	var err error
	if c.AuthoringKey, err = encryptField(c.AuthoringKey, secret); err != nil {
		return fmt.Errorf("encrypt authoring key: %w", err)
	}
	if c.SubscriptionKey, err = encryptField(c.SubscriptionKey, secret); err != nil {
		return fmt.Errorf("encrypt subscription key: %w", err)
	}
	return nil
}

// DecryptKeys reverses EncryptKeys with the same secret.
func (c *ServiceConfig) DecryptKeys(secret string) error {
	var err error
	if c.AuthoringKey, err = decryptField(c.AuthoringKey, secret); err != nil {
		return fmt.Errorf("decrypt authoring key: %w", err)
	}
	if c.SubscriptionKey, err = decryptField(c.SubscriptionKey, secret); err != nil {
		return fmt.Errorf("decrypt subscription key: %w", err)
	}
	return nil
}

// fieldKey derives the AES-256 key from the caller's secret.
func fieldKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func encryptField(value, secret string) (string, error) {
	if value == "" {
		return "", nil
	}

	block, err := aes.NewCipher(fieldKey(secret))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(value), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decryptField(value, secret string) (string, error) {
	if value == "" {
		return "", nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext base64: %w", err)
	}

	block, err := aes.NewCipher(fieldKey(secret))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	plain, err := gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
