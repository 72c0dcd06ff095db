package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/adrianmcphee/crossbase"
)

// Sealer is AES-256-GCM with a random nonce prepended to each ciphertext.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a Sealer. key must be 32 bytes.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, crossbase.WithContext(crossbase.ErrInvalidConfig, map[string]interface{}{
			"expected_key_length": 32,
			"actual_key_length":   len(key),
			"reason":              "AES-256 requires 32-byte key",
		})
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(ciphertext []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, crossbase.WithContext(crossbase.ErrInvalidData, map[string]interface{}{
			"reason":     "ciphertext too short",
			"min_length": n,
			"actual":     len(ciphertext),
		})
	}
	plaintext, err := s.aead.Open(nil, ciphertext[:n], ciphertext[n:], nil)
	if err != nil {
		return nil, crossbase.WithContext(crossbase.ErrInvalidData, map[string]interface{}{
			"reason": "decryption failed",
			"error":  err.Error(),
		})
	}
	return plaintext, nil
}

// EncryptionBackend wraps a Backend with encryption at rest.
type EncryptionBackend struct {
	Backend
	sealer *Sealer
}

// NewEncryptionBackend wraps backend. key must be 32 bytes.
func NewEncryptionBackend(backend Backend, key []byte) (*EncryptionBackend, error) {
	sealer, err := NewSealer(key)
	if err != nil {
		return nil, err
	}
	return &EncryptionBackend{Backend: backend, sealer: sealer}, nil
}

func (e *EncryptionBackend) Put(ctx context.Context, key string, data []byte) error {
	sealed, err := e.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}
	return e.Backend.Put(ctx, key, sealed)
}

func (e *EncryptionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.Backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.sealer.Open(sealed)
}

func (e *EncryptionBackend) PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	sealed, err := e.sealer.Seal(data)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}
	return e.Backend.PutIfMatch(ctx, key, sealed, expectedETag)
}

func (e *EncryptionBackend) GetWithETag(ctx context.Context, key string) ([]byte, string, error) {
	sealed, etag, err := e.Backend.GetWithETag(ctx, key)
	if err != nil {
		return nil, "", err
	}
	plain, err := e.sealer.Open(sealed)
	if err != nil {
		return nil, "", err
	}
	return plain, etag, nil
}
