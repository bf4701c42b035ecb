package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()

	key := make([]byte, KeyLen)
	_, _ = rand.Read(key)

	s, err := NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestNewSealer_KeyLength(t *testing.T) {
	tests := []struct {
		name    string
		keyLen  int
		wantErr bool
	}{
		{name: "valid key", keyLen: 32},
		{name: "too short", keyLen: 16, wantErr: true},
		{name: "too long", keyLen: 64, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSealer(make([]byte, tt.keyLen))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "encryption key must be 32 bytes")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSealer_RoundTrip(t *testing.T) {
	s := newTestSealer(t)
	plaintext := []byte(`{"order_number":"AB-042","total":"12.5"}`)
	aad := []byte("00000000000000000001-abcdef01")

	sealed, err := s.Seal(plaintext, aad)
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	// version + nonce + ciphertext + auth_tag
	assert.Len(t, sealed, 1+NonceSize+len(plaintext)+16)
	assert.NotContains(t, string(sealed), "AB-042")

	opened, err := s.Open(sealed, aad)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealer_DifferentNonces(t *testing.T) {
	s := newTestSealer(t)

	a, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "каждое шифрование должно использовать новый nonce")
}

func TestSealer_OpenFailures(t *testing.T) {
	s := newTestSealer(t)
	sealed, err := s.Seal([]byte("payload"), []byte("key-1"))
	require.NoError(t, err)

	t.Run("wrong additional data", func(t *testing.T) {
		_, err := s.Open(sealed, []byte("key-2"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "authentication failed")
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := newTestSealer(t).Open(sealed, []byte("key-1"))
		require.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := s.Open(tampered, []byte("key-1"))
		require.Error(t, err)
	})

	t.Run("plain json", func(t *testing.T) {
		_, err := s.Open([]byte(`{"id":"1"}`), nil)
		require.ErrorIs(t, err, ErrNotSealed)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := s.Open([]byte{sealedVersion, 1, 2}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too short")
	})
}

func TestSealer_EmptyPlaintext(t *testing.T) {
	_, err := newTestSealer(t).Seal(nil, nil)
	require.Error(t, err)
}
