package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const DefaultValidity = 24 * time.Hour

// Claims carries the encrypted account identity in the Data field alongside
// the registered issued-at and expiry claims.
type Claims struct {
	jwt.RegisteredClaims
	Data string `json:"data"`
}

// Codec mints and verifies session tokens. It holds no state beyond its key
// material and never touches storage; the token string is the whole session.
type Codec struct {
	cipher   *Cipher
	secret   []byte
	validity time.Duration
	nowTime  func() time.Time
}

type CodecOption func(*Codec)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowTime = nowFunc
	}
}

// WithValidity overrides the default 24h token lifetime.
func WithValidity(d time.Duration) CodecOption {
	return func(c *Codec) {
		c.validity = d
	}
}

func NewCodec(cipher *Cipher, secret []byte, options ...CodecOption) (*Codec, error) {
	if cipher == nil {
		return nil, errors.New("[NewCodec] cipher is required")
	}
	if len(secret) == 0 {
		return nil, ErrNoSigningKey
	}

	c := &Codec{
		cipher:   cipher,
		secret:   secret,
		validity: DefaultValidity,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Issue encrypts the account identity and wraps it in a signed, time-bound
// token. The expiry is absolute; there is no renewal.
func (c *Codec) Issue(accountID string) (string, error) {
	encrypted, err := c.cipher.Encrypt(accountID)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Issue] encrypt identity")
	}

	now := c.nowTime()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		Data: encrypted,
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Issue] sign token")
	}
	return signed, nil
}

// Verify checks the signature and expiry, then recovers the account identity
// from the encrypted payload. A decryption failure is reported as
// ErrInvalidToken: callers must not be able to tell which layer rejected the
// token.
func (c *Codec) Verify(raw string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.nowTime))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	accountID, err := c.cipher.Decrypt(claims.Data)
	if err != nil {
		return "", ErrInvalidToken
	}
	return accountID, nil
}
