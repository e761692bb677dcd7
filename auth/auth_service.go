// Package auth ties credentials, federated identities, and session tokens
// together: registration with passcode verification, password and federated
// login, and the authorization gate every protected handler runs behind.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/momstretch/momstretch-server/accounts"
	"github.com/momstretch/momstretch-server/email"
	"github.com/momstretch/momstretch-server/federated"
	"github.com/momstretch/momstretch-server/history"
	"github.com/momstretch/momstretch-server/token"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultOTPValidity = 10 * time.Minute

// providerGoogle is the only federated provider currently wired up.
const providerGoogle = "google"

// Repos holds the repository dependencies for the Service.
type Repos struct {
	Accounts accounts.Repo
	History  history.Repo
}

// LoginMeta carries the request attributes attached to a login-history entry.
type LoginMeta struct {
	UserAgent string
	SourceIP  string
}

// Session is what a successful login returns to the client.
type Session struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// Service is the authentication orchestrator.
type Service struct {
	repos       Repos
	codec       *token.Codec
	verifier    federated.Verifier
	dispatcher  email.Dispatcher
	otpValidity time.Duration
	generateOTP func() string
	nowTime     func() time.Time // nowTime function (injectable for testing)
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithOTPGenerator replaces the passcode generator (primarily for testing).
func WithOTPGenerator(gen func() string) ServiceOption {
	return func(s *Service) {
		s.generateOTP = gen
	}
}

func NewService(
	repos Repos,
	codec *token.Codec,
	verifier federated.Verifier,
	dispatcher email.Dispatcher,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Accounts == nil {
		return nil, errors.New("[NewService] Accounts repo is required")
	}
	if repos.History == nil {
		return nil, errors.New("[NewService] History repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] token codec is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewService] federated verifier is required")
	}
	if dispatcher == nil {
		return nil, errors.New("[NewService] passcode dispatcher is required")
	}

	s := &Service{
		repos:       repos,
		codec:       codec,
		verifier:    verifier,
		dispatcher:  dispatcher,
		otpValidity: defaultOTPValidity,
		generateOTP: GenerateOTP,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates an unverified account with a fresh passcode and attempts
// to dispatch it. The account is persisted before dispatch so a mail failure
// can never strand a confirmed identity; the dispatch outcome is not exposed
// to the caller.
func (s *Service) Register(ctx context.Context, emailAddr, password, name string) error {
	hashed, err := accounts.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[Service.Register] hash password")
	}

	code := s.generateOTP()
	account := &accounts.Account{
		Email:        emailAddr,
		PasswordHash: hashed,
		Name:         name,
		Verified:     false,
		OTPCode:      code,
		OTPExpiresAt: s.nowTime().Add(s.otpValidity),
	}

	if _, err := s.repos.Accounts.Insert(ctx, account); err != nil {
		if errors.Is(err, accounts.ErrDuplicateEmail) {
			return ErrDuplicateEmail
		}
		return errors.Wrap(err, "[Service.Register] insert account")
	}

	if err := s.dispatcher.Send(ctx, emailAddr, code); err != nil {
		log.Warn().Err(err).Str("email", emailAddr).Msg("passcode dispatch failed")
	}
	return nil
}

// ConfirmOTP flips the account to verified when the passcode matches within
// its window. Verified-state and passcode clearing happen in one store call.
func (s *Service) ConfirmOTP(ctx context.Context, emailAddr, code string) error {
	account, err := s.repos.Accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "[Service.ConfirmOTP] get account")
	}

	if account.Verified {
		return ErrAlreadyVerified
	}
	if account.OTPCode == "" || account.OTPCode != code {
		return ErrInvalidOTP
	}
	if s.nowTime().After(account.OTPExpiresAt) {
		return ErrExpiredOTP
	}

	if err := s.repos.Accounts.SetVerified(ctx, account.ID); err != nil {
		return errors.Wrap(err, "[Service.ConfirmOTP] set verified")
	}
	return nil
}

// Login checks verification state before the password so an unverified
// account is reported as such even with correct credentials.
func (s *Service) Login(ctx context.Context, emailAddr, password string, meta LoginMeta) (*Session, error) {
	account, err := s.repos.Accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "[Service.Login] get account")
	}

	if !account.Verified {
		return nil, ErrUnverifiedAccount
	}
	if !accounts.CheckPasswordHash(password, account.PasswordHash) {
		return nil, ErrBadCredentials
	}

	return s.openSession(ctx, account, meta)
}

// LoginFederated verifies the assertion, then finds or creates the account.
// A new account is created already verified and password-less. An existing
// account gets the provider linkage backfilled once; a linkage to a
// different subject is refused rather than silently overwritten.
func (s *Service) LoginFederated(ctx context.Context, assertion string, meta LoginMeta) (*Session, error) {
	claims, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		switch {
		case errors.Is(err, federated.ErrExpiredAssertion):
			return nil, ErrExpiredAssertion
		case errors.Is(err, federated.ErrInvalidAssertion):
			return nil, ErrInvalidAssertion
		default:
			return nil, errors.Wrap(err, "[Service.LoginFederated] verify assertion")
		}
	}

	account, err := s.repos.Accounts.GetByEmail(ctx, claims.Email)
	switch {
	case errors.Is(err, accounts.ErrNotFound):
		account = &accounts.Account{
			Email:           claims.Email,
			Name:            claims.DisplayName,
			Verified:        true,
			Provider:        providerGoogle,
			ProviderSubject: claims.Subject,
		}
		id, err := s.repos.Accounts.Insert(ctx, account)
		if err != nil {
			return nil, errors.Wrap(err, "[Service.LoginFederated] insert account")
		}
		account.ID = id
	case err != nil:
		return nil, errors.Wrap(err, "[Service.LoginFederated] get account")
	case !account.HasProviderLink():
		if err := s.repos.Accounts.SetProviderLink(ctx, account.ID, providerGoogle, claims.Subject); err != nil {
			return nil, errors.Wrap(err, "[Service.LoginFederated] link provider")
		}
	case account.ProviderSubject != claims.Subject:
		return nil, ErrProviderMismatch
	}

	return s.openSession(ctx, account, meta)
}

// Authorize is the gate every protected handler runs behind. It is a pure
// function of the header value and the clock; token errors from the codec
// pass through unchanged.
func (s *Service) Authorize(bearerHeader string) (string, error) {
	parts := strings.SplitN(bearerHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMissingToken
	}
	return s.codec.Verify(parts[1])
}

func (s *Service) openSession(ctx context.Context, account *accounts.Account, meta LoginMeta) (*Session, error) {
	raw, err := s.codec.Issue(account.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.openSession] issue token")
	}

	// Best effort: the login succeeds whether or not the sink accepts it.
	if err := s.repos.History.Record(ctx, &history.Entry{
		AccountID: account.ID,
		Timestamp: s.nowTime(),
		UserAgent: meta.UserAgent,
		SourceIP:  meta.SourceIP,
	}); err != nil {
		log.Warn().Err(err).Str("account_id", account.ID).Msg("login history record failed")
	}

	return &Session{Token: raw, Name: account.Name}, nil
}
