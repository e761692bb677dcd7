// Package token issues and verifies the self-contained session tokens used
// by every protected endpoint. A token is an HS256-signed claim set whose
// subject data is the AES-GCM ciphertext of the account identity, so a token
// that leaks through logs or URLs does not reveal which account it belongs to.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

const keySize = 32 // AES-256

// Cipher provides authenticated encryption for the identity string embedded
// in session tokens. The key comes from process configuration and lives for
// the process lifetime; rotating it invalidates all outstanding tokens.
type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, ErrBadCipherKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "[NewCipher] aes.NewCipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "[NewCipher] cipher.NewGCM")
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext under a fresh random nonce. The nonce is
// prepended to the ciphertext and the whole value is base64url encoded, so
// repeated calls on the same input yield different output.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "[Cipher.Encrypt] rand.Read")
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed input, a different key, or any
// tampering fails the GCM integrity check and surfaces as ErrDecryption.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryption
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", ErrDecryption
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}
