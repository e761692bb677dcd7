// Package federated validates identity assertions minted by an external
// OIDC issuer (the Firebase token scheme) and extracts the trusted claims
// the rest of the system works with.
package federated

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
)

var (
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	ErrExpiredAssertion = errors.New("identity assertion expired")
)

const (
	// DefaultSkewTolerance absorbs the usual clock drift between the issuer
	// and this server.
	DefaultSkewTolerance = time.Minute
	// retrySkewTolerance is the widened window used for the single retry
	// after a clock-skew symptom.
	retrySkewTolerance = 5 * time.Minute

	defaultDisplayName = "Momstretch user"
)

// Claims are the fields extracted from a verified assertion. DisplayName is
// always populated: it falls back to the email, then to a placeholder.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
}

// Verifier validates a raw identity assertion and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, rawAssertion string) (*Claims, error)
}

// OIDCVerifier checks assertions against the issuer's published keys. Mobile
// device clocks drift, so a failure that looks like clock skew (token not
// yet valid, or expired right at the boundary) is retried exactly once with
// a much wider tolerance; every other failure is final.
type OIDCVerifier struct {
	verify func(ctx context.Context, rawAssertion string, skew time.Duration) (*Claims, error)
}

var _ Verifier = (*OIDCVerifier)(nil)

// NewOIDCVerifier fetches the issuer's discovery document and key set. The
// audience is the value the issuer stamps into the aud claim (the project id
// for Firebase tokens).
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	if issuer == "" || audience == "" {
		return nil, errors.New("[NewOIDCVerifier] issuer and audience are required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDCVerifier] failed to create OIDC provider")
	}

	return &OIDCVerifier{
		verify: func(ctx context.Context, rawAssertion string, skew time.Duration) (*Claims, error) {
			verifier := provider.Verifier(&oidc.Config{
				ClientID: audience,
				// Shifting the verifier's clock back widens the expiry and
				// not-before checks by the skew tolerance.
				Now: func() time.Time { return time.Now().Add(-skew) },
			})
			idToken, err := verifier.Verify(ctx, rawAssertion)
			if err != nil {
				return nil, err
			}

			var claims struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			}
			if err := idToken.Claims(&claims); err != nil {
				return nil, err
			}
			return &Claims{
				Subject:     idToken.Subject,
				Email:       claims.Email,
				DisplayName: claims.Name,
			}, nil
		},
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawAssertion string) (*Claims, error) {
	claims, err := v.verify(ctx, rawAssertion, DefaultSkewTolerance)
	if err != nil && isSkewSymptom(err) {
		claims, err = v.verify(ctx, rawAssertion, retrySkewTolerance)
	}
	if err != nil {
		if isExpiry(err) {
			return nil, ErrExpiredAssertion
		}
		return nil, ErrInvalidAssertion
	}

	if claims.DisplayName == "" {
		claims.DisplayName = claims.Email
	}
	if claims.DisplayName == "" {
		claims.DisplayName = defaultDisplayName
	}
	return claims, nil
}

// isSkewSymptom reports whether the verification failure can be explained by
// clock drift alone: the assertion was expired or not yet valid at our local
// clock. Signature and audience failures never match.
func isSkewSymptom(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "expired") ||
		strings.Contains(msg, "issued in the future") ||
		strings.Contains(msg, "before") ||
		strings.Contains(msg, "too early")
}

func isExpiry(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "expired")
}
