package auth

import "errors"

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrNotFound          = errors.New("account not found")
	ErrUnverifiedAccount = errors.New("account not verified")
	ErrBadCredentials    = errors.New("incorrect password")
	ErrInvalidOTP        = errors.New("incorrect verification code")
	ErrExpiredOTP        = errors.New("verification code expired")
	ErrAlreadyVerified   = errors.New("account already verified")
	ErrMissingToken      = errors.New("missing bearer token")
	ErrInvalidAssertion  = errors.New("invalid identity assertion")
	ErrExpiredAssertion  = errors.New("identity assertion expired")
	ErrProviderMismatch  = errors.New("account already linked to a different identity")
)
