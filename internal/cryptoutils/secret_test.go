package cryptoutils

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, keySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(t)

	ciphertext, err := Encrypt("ya29.access-token", key)
	require.NoError(t, err)
	assert.NotEqual(t, "ya29.access-token", ciphertext)

	plaintext, err := Decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", plaintext)
}

func TestEncrypt_EmptyPassthrough(t *testing.T) {
	key := testKey(t)

	ciphertext, err := Encrypt("", key)
	require.NoError(t, err)
	assert.Empty(t, ciphertext)

	plaintext, err := Decrypt("", key)
	require.NoError(t, err)
	assert.Empty(t, plaintext)
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	key := testKey(t)

	first, err := Encrypt("secret", key)
	require.NoError(t, err)
	second, err := Encrypt("secret", key)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "nonce must randomize ciphertexts")
}

func TestEncrypt_RejectsShortKey(t *testing.T) {
	shortKey := base64.StdEncoding.EncodeToString([]byte("too-short"))

	_, err := Encrypt("secret", shortKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestDecrypt_WrongKey(t *testing.T) {
	ciphertext, err := Encrypt("secret", testKey(t))
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, testKey(t))
	require.Error(t, err)
}

func TestDecrypt_Garbage(t *testing.T) {
	key := testKey(t)

	_, err := Decrypt("not base64!!!", key)
	require.Error(t, err)

	_, err = Decrypt(base64.StdEncoding.EncodeToString([]byte("xy")), key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}
