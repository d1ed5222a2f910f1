package app

import (
	"errors"
	"fmt"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/crypto"
)

// ErrNoEncryptionKey is returned when security.encryption_key is empty.
var ErrNoEncryptionKey = errors.New("config: security.encryption_key is not set")

// Cipher builds the integration secret cipher. Keys that decode to 16, 24 or 32
// bytes are used directly; anything else is treated as a passphrase and
// stretched with Argon2id over salt.
func (c SecurityConfig) Cipher(salt []byte) (*crypto.Cipher, error) {
	key, err := DecodeKey(c.EncryptionKey)
	if err != nil {
		return nil, ErrNoEncryptionKey
	}
	switch len(key) {
	case 16, 24, 32:
		return crypto.NewCipher(key)
	}
	cipher, err := crypto.CipherFromPassphrase(key, salt, crypto.DefaultArgon2Params())
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}
	return cipher, nil
}
