package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrCredentialCorrupt = errors.New("stored credential cannot be decrypted")
	ErrCredentialSecret  = errors.New("credential secret is required")
)

const credentialNonceSize = 24

// CredentialCipher encrypts device passwords at rest
type CredentialCipher interface {
	Seal(plaintext string) (string, error)
	Open(ciphertext string) (string, error)
}

// CredentialBox is a nacl/secretbox cipher keyed by SHA-256 of a secret.
// Sealed values are base64(nonce || box).
type CredentialBox struct {
	key [32]byte
}

// NewCredentialBox derives the box key from secret
func NewCredentialBox(secret string) (*CredentialBox, error) {
	if secret == "" {
		return nil, ErrCredentialSecret
	}
	return &CredentialBox{key: sha256.Sum256([]byte(secret))}, nil
}

func (b *CredentialBox) Seal(plaintext string) (string, error) {
	var nonce [credentialNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *CredentialBox) Open(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrCredentialCorrupt
	}
	if len(raw) < credentialNonceSize+secretbox.Overhead {
		return "", ErrCredentialCorrupt
	}
	var nonce [credentialNonceSize]byte
	copy(nonce[:], raw[:credentialNonceSize])
	plain, ok := secretbox.Open(nil, raw[credentialNonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrCredentialCorrupt
	}
	return string(plain), nil
}
