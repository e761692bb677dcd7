package config

import (
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
)

// SecurityConfig holds the key material and validity windows for the session
// token scheme. Both keys are required: the server must refuse to start
// without them rather than mint unverifiable tokens.
type SecurityConfig interface {
	GetSigningKey() []byte
	GetCipherKey() ([]byte, error)
	GetAPIKey() string
	GetTokenValidity() time.Duration
	GetOTPValidity() time.Duration
}

var (
	ErrNoSigningKey = errors.New("SECRET_KEY is not configured")
	ErrNoCipherKey  = errors.New("CIPHER_KEY is not configured")
	ErrNoAPIKey     = errors.New("API_KEY is not configured")
)

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSigningKey() []byte {
	return []byte(GetEnv("SECRET_KEY", ""))
}

// GetCipherKey decodes the base64url-encoded 32-byte identity encryption key.
func (Security) GetCipherKey() ([]byte, error) {
	encoded := GetEnv("CIPHER_KEY", "")
	if encoded == "" {
		return nil, ErrNoCipherKey
	}
	key, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "CIPHER_KEY is not valid base64")
	}
	return key, nil
}

func (Security) GetAPIKey() string {
	return GetEnv("API_KEY", "")
}

func (Security) GetTokenValidity() time.Duration {
	return 24 * time.Hour
}

func (Security) GetOTPValidity() time.Duration {
	return 10 * time.Minute
}

// Validate checks the startup-fatal configuration invariants. A missing
// signing or cipher key must stop the process, never degrade per-request.
func Validate(c Config) error {
	if len(c.GetSigningKey()) == 0 {
		return ErrNoSigningKey
	}
	if _, err := c.GetCipherKey(); err != nil {
		return err
	}
	if c.GetAPIKey() == "" {
		return ErrNoAPIKey
	}
	return nil
}
