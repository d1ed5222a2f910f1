package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const sealedPrefix = "v1:"

var (
	// ErrInvalidKey is returned when the key is not a valid AES length.
	ErrInvalidKey = errors.New("crypto: key must be 16, 24 or 32 bytes")
	// ErrMalformedCiphertext indicates the payload was not produced by Seal.
	ErrMalformedCiphertext = errors.New("crypto: malformed ciphertext")
)

// Cipher seals small secrets with AES-GCM. Associated data binds a ciphertext
// to its owner, so a value copied to another tenant fails to open.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a raw AES key.
func NewCipher(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns a versioned base64 string.
func (c *Cipher) Seal(plaintext []byte, associated string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, []byte(associated))
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. The associated data must match the value used to seal.
func (c *Cipher) Open(ciphertext, associated string) ([]byte, error) {
	if !strings.HasPrefix(ciphertext, sealedPrefix) {
		return nil, ErrMalformedCiphertext
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, sealedPrefix))
	if err != nil {
		return nil, ErrMalformedCiphertext
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrMalformedCiphertext
	}
	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, body, []byte(associated))
	if err != nil {
		return nil, fmt.Errorf("crypto: open: %w", err)
	}
	return plaintext, nil
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: token length must be positive")
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
