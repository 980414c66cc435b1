package encryption

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	data := []byte(`{"votes":10}`)

	out, err := Identity{}.Encrypt(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	out, err = Identity{}.Decrypt(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestXChaCha20RoundTrip(t *testing.T) {
	hook, err := NewXChaCha20(bytes.Repeat([]byte{7}, KeySize))
	require.NoError(t, err)

	data := []byte(`{"fullname":"John Gold"}`)
	sealed, err := hook.Encrypt(data)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "John Gold")

	again, err := hook.Encrypt(data)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ")

	opened, err := hook.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, data, opened)
}

func TestXChaCha20WrongKey(t *testing.T) {
	a, err := NewXChaCha20(DeriveKey([]byte("first"), []byte("salt-salt")))
	require.NoError(t, err)
	b, err := NewXChaCha20(DeriveKey([]byte("second"), []byte("salt-salt")))
	require.NoError(t, err)

	sealed, err := a.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrCiphertext)

	_, err = a.Decrypt([]byte("short"))
	assert.ErrorIs(t, err, ErrCiphertext)
}

func TestXChaCha20InvalidKey(t *testing.T) {
	_, err := NewXChaCha20([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDeriveKeyIsStable(t *testing.T) {
	a := DeriveKey([]byte("passphrase"), []byte("salt-salt"))
	b := DeriveKey([]byte("passphrase"), []byte("salt-salt"))
	assert.Len(t, a, KeySize)
	assert.Equal(t, a, b)
}
