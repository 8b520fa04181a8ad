package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	pass := []byte("secret-passphrase")
	salt := []byte("fixed-salt-value")

	key1 := DeriveKey(pass, salt)
	key2 := DeriveKey(pass, salt)

	require.Len(t, key1, KeySize)
	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	pass := []byte("secret-passphrase")

	key1 := DeriveKey(pass, []byte("salt-1"))
	key2 := DeriveKey(pass, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(DeriveKey([]byte("p"), []byte("s")))
	require.NoError(t, err)

	sealed := s.Seal([]byte("refresh-token"))
	require.NotContains(t, string(sealed), "refresh-token")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("refresh-token"), plain)
}

func TestSealer_NoncesDiffer(t *testing.T) {
	s, err := NewSealer(DeriveKey([]byte("p"), []byte("s")))
	require.NoError(t, err)

	a := s.Seal([]byte("same"))
	b := s.Seal([]byte("same"))
	require.NotEqual(t, a, b)
}

func TestSealer_WrongKeyFails(t *testing.T) {
	s1, err := NewSealer(DeriveKey([]byte("p1"), []byte("s")))
	require.NoError(t, err)
	s2, err := NewSealer(DeriveKey([]byte("p2"), []byte("s")))
	require.NoError(t, err)

	_, err = s2.Open(s1.Seal([]byte("x")))
	require.Error(t, err)
}

func TestSealer_ShortInput(t *testing.T) {
	s, err := NewSealer(DeriveKey([]byte("p"), []byte("s")))
	require.NoError(t, err)

	_, err = s.Open([]byte{1, 2})
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestNewSealer_BadKeyLength(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	require.Error(t, err)
}
