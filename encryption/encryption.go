// Package encryption provides transforms applied to serialized documents before they reach storage.
package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidKey is returned when a key has the wrong length.
	ErrInvalidKey = errors.New("invalid encryption key")
	// ErrCiphertext is returned when a payload cannot be decrypted.
	ErrCiphertext = errors.New("invalid ciphertext")
)

// Hook is a symmetric transform around serialized bytes.
type Hook interface {
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}

// Identity is a hook that returns data unchanged.
type Identity struct{}

func (Identity) Encrypt(data []byte) ([]byte, error) {
	return data, nil
}

func (Identity) Decrypt(data []byte) ([]byte, error) {
	return data, nil
}

// KeySize is the length of keys accepted by NewXChaCha20.
const KeySize = chacha20poly1305.KeySize

type xchacha struct {
	aead cipher.AEAD
}

// NewXChaCha20 returns a hook that seals data with XChaCha20-Poly1305.
//
// Each payload is prefixed with a random nonce.
func NewXChaCha20(key []byte) (Hook, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: need %d bytes got %d", ErrInvalidKey, KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &xchacha{aead: aead}, nil
}

func (x *xchacha) Encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, x.aead.NonceSize(), x.aead.NonceSize()+len(data)+x.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return x.aead.Seal(nonce, nonce, data, nil), nil
}

func (x *xchacha) Decrypt(data []byte) ([]byte, error) {
	if len(data) < x.aead.NonceSize()+x.aead.Overhead() {
		return nil, fmt.Errorf("%w: payload too short", ErrCiphertext)
	}
	nonce, sealed := data[:x.aead.NonceSize()], data[x.aead.NonceSize():]
	out, err := x.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCiphertext, err)
	}
	return out, nil
}

// argon2id parameters for DeriveKey.
const (
	deriveTime    = 1
	deriveMemory  = 64 * 1024
	deriveThreads = 4
)

// DeriveKey returns a key for NewXChaCha20 derived from a passphrase with argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, deriveTime, deriveMemory, deriveThreads, KeySize)
}
