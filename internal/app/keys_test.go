package app

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeKey(t *testing.T) {
	hexKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	expectedHex, _ := hex.DecodeString(hexKey)

	rawKey := make([]byte, 32)
	for i := range rawKey {
		rawKey[i] = byte(i)
	}

	cases := []struct {
		name  string
		input string
		want  []byte
	}{
		{name: "hex", input: hexKey, want: expectedHex},
		{name: "base64", input: base64.StdEncoding.EncodeToString(rawKey), want: rawKey},
		{name: "raw base64", input: base64.RawStdEncoding.EncodeToString(rawKey[:31]), want: rawKey[:31]},
		{name: "passphrase", input: "correct horse battery staple!", want: []byte("correct horse battery staple!")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeKey(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeKeyEmpty(t *testing.T) {
	_, err := DecodeKey("   ")
	require.Error(t, err)
}

func TestSecurityCipher(t *testing.T) {
	salt := []byte("0123456789abcdef")

	direct, err := SecurityConfig{EncryptionKey: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"}.Cipher(nil)
	require.NoError(t, err)
	sealed, err := direct.Seal([]byte("https://hooks.slack.com/services/T/B/X"), "tenant-1")
	require.NoError(t, err)
	opened, err := direct.Open(sealed, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, "https://hooks.slack.com/services/T/B/X", string(opened))

	derived, err := SecurityConfig{EncryptionKey: "correct horse battery staple!"}.Cipher(salt)
	require.NoError(t, err)
	again, err := SecurityConfig{EncryptionKey: "correct horse battery staple!"}.Cipher(salt)
	require.NoError(t, err)
	sealed, err = derived.Seal([]byte("secret"), "t")
	require.NoError(t, err)
	opened, err = again.Open(sealed, "t")
	require.NoError(t, err)
	require.Equal(t, "secret", string(opened))

	_, err = SecurityConfig{EncryptionKey: "correct horse battery staple!"}.Cipher(nil)
	require.Error(t, err)

	_, err = SecurityConfig{}.Cipher(salt)
	require.ErrorIs(t, err, ErrNoEncryptionKey)
}
