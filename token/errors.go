package token

import "errors"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrDecryption   = errors.New("decryption failed")
	ErrBadCipherKey = errors.New("cipher key must be 32 bytes")
	ErrNoSigningKey = errors.New("signing key is empty")
)
