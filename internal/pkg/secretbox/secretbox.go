// Package secretbox encrypts short secrets for storage at rest.
//
// Sealed values are versioned strings ("v1:" + base64(nonce||ciphertext)) so a
// later key or algorithm change can keep reading older records.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const versionV1 = "v1"

// ErrUnreadable is returned for values that are corrupt, were sealed with a
// different key, or use an unknown version.
var ErrUnreadable = errors.New("secretbox: unreadable sealed value")

// Box seals and opens values with a key derived from server-side material.
type Box struct {
	aead cipher.AEAD
}

// New derives a 256-bit key from keyMaterial with SHA-256.
func New(keyMaterial string) (*Box, error) {
	if keyMaterial == "" {
		return nil, errors.New("secretbox: empty key material")
	}
	sum := sha256.Sum256([]byte(keyMaterial))

	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("secretbox: new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretbox: new gcm: %w", err)
	}
	return &Box{aead: aead}, nil
}

func (b *Box) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionV1 + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *Box) Open(sealed string) (string, error) {
	version, payload, ok := strings.Cut(sealed, ":")
	if !ok || version != versionV1 {
		return "", ErrUnreadable
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrUnreadable
	}
	ns := b.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrUnreadable
	}
	plain, err := b.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrUnreadable
	}
	return string(plain), nil
}
