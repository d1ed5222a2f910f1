package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(bytes.Repeat([]byte{0x1}, 32))
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("https://hooks.slack.com/services/T/B/X"), "tenant-1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sealed, "v1:"))

	opened, err := c.Open(sealed, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, "https://hooks.slack.com/services/T/B/X", string(opened))
}

func TestCipherRejectsWrongAssociatedData(t *testing.T) {
	c, err := NewCipher(bytes.Repeat([]byte{0x2}, 32))
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("secret"), "tenant-1")
	require.NoError(t, err)

	_, err = c.Open(sealed, "tenant-2")
	require.Error(t, err)
}

func TestCipherRejectsMalformedInput(t *testing.T) {
	c, err := NewCipher(bytes.Repeat([]byte{0x3}, 16))
	require.NoError(t, err)

	_, err = c.Open("plain", "")
	require.ErrorIs(t, err, ErrMalformedCiphertext)
	_, err = c.Open("v1:!!!", "")
	require.ErrorIs(t, err, ErrMalformedCiphertext)
	_, err = c.Open("v1:AAAA", "")
	require.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestNewCipherValidatesKeyLength(t *testing.T) {
	_, err := NewCipher([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEqual(t, token, other)

	_, err = GenerateToken(0)
	require.Error(t, err)
}
