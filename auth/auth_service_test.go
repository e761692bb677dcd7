package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/momstretch/momstretch-server/accounts"
	accountrepofake "github.com/momstretch/momstretch-server/accounts/repofake"
	"github.com/momstretch/momstretch-server/auth"
	"github.com/momstretch/momstretch-server/federated"
	historyrepofake "github.com/momstretch/momstretch-server/history/repofake"
	"github.com/momstretch/momstretch-server/token"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@x.com"
	testPassword = "pw1"
	testName     = "Ana"
	testOTP      = "123456"
	testSubject  = "firebase-uid-1"
)

var testMeta = auth.LoginMeta{UserAgent: "test-agent", SourceIP: "127.0.0.1"}

// fakeVerifier returns canned claims or a canned error.
type fakeVerifier struct {
	claims *federated.Claims
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*federated.Claims, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c := *f.claims
	return &c, nil
}

// captureDispatcher records dispatched passcodes and optionally fails.
type captureDispatcher struct {
	sent []string
	err  error
}

func (d *captureDispatcher) Send(_ context.Context, _, code string) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, code)
	return nil
}

type testFixture struct {
	accountRepo *accountrepofake.FakeAccountRepo
	historyRepo *historyrepofake.FakeHistoryRepo
	verifier    *fakeVerifier
	dispatcher  *captureDispatcher
	codec       *token.Codec
	service     *auth.Service
	now         time.Time
}

func setupTestFixture(t *testing.T, options ...auth.ServiceOption) *testFixture {
	t.Helper()

	key := make([]byte, 32)
	cipher, err := token.NewCipher(key)
	require.NoError(t, err)
	codec, err := token.NewCodec(cipher, []byte("test-secret"))
	require.NoError(t, err)

	f := &testFixture{
		accountRepo: accountrepofake.NewFakeAccountRepo(),
		historyRepo: historyrepofake.NewFakeHistoryRepo(),
		verifier:    &fakeVerifier{claims: &federated.Claims{Subject: testSubject, Email: testEmail, DisplayName: testName}},
		dispatcher:  &captureDispatcher{},
		codec:       codec,
		now:         time.Now(),
	}

	opts := append([]auth.ServiceOption{
		auth.WithNowTime(func() time.Time { return f.now }),
		auth.WithOTPGenerator(func() string { return testOTP }),
	}, options...)

	service, err := auth.NewService(
		auth.Repos{Accounts: f.accountRepo, History: f.historyRepo},
		codec, f.verifier, f.dispatcher, opts...)
	require.NoError(t, err)

	f.service = service
	return f
}

func (f *testFixture) register(t *testing.T) {
	t.Helper()
	require.NoError(t, f.service.Register(context.Background(), testEmail, testPassword, testName))
}

func (f *testFixture) registerAndConfirm(t *testing.T) {
	t.Helper()
	f.register(t)
	require.NoError(t, f.service.ConfirmOTP(context.Background(), testEmail, testOTP))
}

func TestRegisterCreatesUnverifiedAccountWithOTP(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	account, err := f.accountRepo.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.False(t, account.Verified)
	require.Len(t, account.OTPCode, 6)
	require.Equal(t, f.now.Add(10*time.Minute), account.OTPExpiresAt)
	require.True(t, account.HasPassword())
	require.True(t, accounts.CheckPasswordHash(testPassword, account.PasswordHash))
	require.Equal(t, []string{testOTP}, f.dispatcher.sent)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	err := f.service.Register(context.Background(), testEmail, "other-pw", "Other")
	require.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestRegisterSucceedsWhenDispatchFails(t *testing.T) {
	f := setupTestFixture(t)
	f.dispatcher.err = errors.New("smtp unreachable")

	require.NoError(t, f.service.Register(context.Background(), testEmail, testPassword, testName))

	// The passcode is persisted even though dispatch failed.
	account, err := f.accountRepo.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.Equal(t, testOTP, account.OTPCode)
}

func TestConfirmOTP(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	require.NoError(t, f.service.ConfirmOTP(context.Background(), testEmail, testOTP))

	account, err := f.accountRepo.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.True(t, account.Verified)
	require.Empty(t, account.OTPCode)
	require.True(t, account.OTPExpiresAt.IsZero())
}

func TestConfirmOTPUnknownEmail(t *testing.T) {
	f := setupTestFixture(t)
	err := f.service.ConfirmOTP(context.Background(), "nobody@x.com", testOTP)
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestConfirmOTPWrongCode(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	err := f.service.ConfirmOTP(context.Background(), testEmail, "000000")
	require.ErrorIs(t, err, auth.ErrInvalidOTP)
}

func TestConfirmOTPExpired(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	f.now = f.now.Add(11 * time.Minute)
	err := f.service.ConfirmOTP(context.Background(), testEmail, testOTP)
	require.ErrorIs(t, err, auth.ErrExpiredOTP)
}

func TestConfirmOTPTwice(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndConfirm(t)

	err := f.service.ConfirmOTP(context.Background(), testEmail, testOTP)
	require.ErrorIs(t, err, auth.ErrAlreadyVerified)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndConfirm(t)

	session, err := f.service.Login(context.Background(), testEmail, testPassword, testMeta)
	require.NoError(t, err)
	require.Equal(t, testName, session.Name)
	require.NotEmpty(t, session.Token)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Login(context.Background(), "nobody@x.com", testPassword, testMeta)
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestLoginUnverifiedEvenWithCorrectPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, err := f.service.Login(context.Background(), testEmail, testPassword, testMeta)
	require.ErrorIs(t, err, auth.ErrUnverifiedAccount)
}

func TestLoginWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndConfirm(t)

	_, err := f.service.Login(context.Background(), testEmail, "wrong", testMeta)
	require.ErrorIs(t, err, auth.ErrBadCredentials)
}

func TestLoginRecordsHistory(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndConfirm(t)

	session, err := f.service.Login(context.Background(), testEmail, testPassword, testMeta)
	require.NoError(t, err)

	accountID, err := f.service.Authorize("Bearer " + session.Token)
	require.NoError(t, err)

	entries, err := f.historyRepo.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, testMeta.UserAgent, entries[0].UserAgent)
	require.Equal(t, testMeta.SourceIP, entries[0].SourceIP)
}

func TestLoginFederatedCreatesVerifiedAccount(t *testing.T) {
	f := setupTestFixture(t)

	session, err := f.service.LoginFederated(context.Background(), "assertion", testMeta)
	require.NoError(t, err)
	require.Equal(t, testName, session.Name)

	account, err := f.accountRepo.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.True(t, account.Verified)
	require.False(t, account.HasPassword())
	require.Equal(t, testSubject, account.ProviderSubject)
	require.Empty(t, account.OTPCode)
}

func TestLoginFederatedIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)

	first, err := f.service.LoginFederated(context.Background(), "assertion-1", testMeta)
	require.NoError(t, err)
	second, err := f.service.LoginFederated(context.Background(), "assertion-2", testMeta)
	require.NoError(t, err)

	// Exactly one account; both tokens resolve to it.
	idA, err := f.service.Authorize("Bearer " + first.Token)
	require.NoError(t, err)
	idB, err := f.service.Authorize("Bearer " + second.Token)
	require.NoError(t, err)
	require.Equal(t, idA, idB)
}

func TestLoginFederatedBackfillsLinkOnce(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndConfirm(t)

	_, err := f.service.LoginFederated(context.Background(), "assertion", testMeta)
	require.NoError(t, err)

	account, err := f.accountRepo.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	require.Equal(t, testSubject, account.ProviderSubject)
	require.True(t, account.HasPassword())
}

func TestLoginFederatedRefusesSubjectTakeover(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.LoginFederated(context.Background(), "assertion", testMeta)
	require.NoError(t, err)

	f.verifier.claims.Subject = "a-different-uid"
	_, err = f.service.LoginFederated(context.Background(), "assertion", testMeta)
	require.ErrorIs(t, err, auth.ErrProviderMismatch)
}

func TestLoginFederatedVerifierErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"invalid assertion", federated.ErrInvalidAssertion, auth.ErrInvalidAssertion},
		{"expired assertion", federated.ErrExpiredAssertion, auth.ErrExpiredAssertion},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.verifier.err = tc.err
			_, err := f.service.LoginFederated(context.Background(), "assertion", testMeta)
			require.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestAuthorize(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndConfirm(t)

	session, err := f.service.Login(context.Background(), testEmail, testPassword, testMeta)
	require.NoError(t, err)

	account, err := f.accountRepo.GetByEmail(context.Background(), testEmail)
	require.NoError(t, err)

	id, err := f.service.Authorize("Bearer " + session.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, id)
}

func TestAuthorizeHeaderShapes(t *testing.T) {
	f := setupTestFixture(t)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "bearer token"} {
		_, err := f.service.Authorize(header)
		require.ErrorIs(t, err, auth.ErrMissingToken, "header %q", header)
	}
}

func TestAuthorizePropagatesTokenErrors(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Authorize("Bearer not-a-real-token")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

// Full walkthrough: register, fail a confirm, confirm, login, authorize.
func TestRegistrationScenario(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, testEmail, testPassword, testName))

	account, err := f.accountRepo.GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	require.False(t, account.Verified)
	require.Regexp(t, `^\d{6}$`, account.OTPCode)

	require.ErrorIs(t, f.service.ConfirmOTP(ctx, testEmail, "999999"), auth.ErrInvalidOTP)
	require.NoError(t, f.service.ConfirmOTP(ctx, testEmail, testOTP))

	session, err := f.service.Login(ctx, testEmail, testPassword, testMeta)
	require.NoError(t, err)

	id, err := f.service.Authorize("Bearer " + session.Token)
	require.NoError(t, err)
	require.Equal(t, account.ID, id)
}
