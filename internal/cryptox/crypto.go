// Package cryptox seals small values (session tokens) at rest with AES-GCM
// under a key derived from a passphrase with argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/toolshare/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	KeySize  = 32
	SaltSize = 16
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey stretches passphrase into a KeySize key. The same passphrase and
// salt always produce the same key.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Sealer encrypts and decrypts values with a fixed key.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aesgcm}, nil
}

// Seal returns nonce||ciphertext. A fresh nonce is drawn per call.
func (s *Sealer) Seal(plaintext []byte) []byte {
	nonce := common.GenerateRandByteArray(s.aead.NonceSize())
	return s.aead.Seal(nonce, nonce, plaintext, nil)
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrCiphertextTooShort
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], nil)
}
