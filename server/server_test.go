package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	accountrepofake "github.com/momstretch/momstretch-server/accounts/repofake"
	"github.com/momstretch/momstretch-server/auth"
	"github.com/momstretch/momstretch-server/email"
	epdsrepofake "github.com/momstretch/momstretch-server/epds/repofake"
	"github.com/momstretch/momstretch-server/federated"
	historyrepofake "github.com/momstretch/momstretch-server/history/repofake"
	"github.com/momstretch/momstretch-server/internal/config"
	"github.com/momstretch/momstretch-server/server"
	"github.com/momstretch/momstretch-server/token"
)

const (
	testAPIKey = "test-api-key"
	testEmail  = "a@x.com"
	testOTP    = "123456"
)

// testConfig overrides the env-sourced config with fixed test values.
type testConfig struct {
	config.EnvVars
	config.Cors
	config.Security
	config.Federated
}

func (testConfig) GetAPIKey() string { return testAPIKey }
func (testConfig) GetEnv() string    { return "TEST" }

type stubVerifier struct {
	claims federated.Claims
}

func (v stubVerifier) Verify(_ context.Context, _ string) (*federated.Claims, error) {
	c := v.claims
	return &c, nil
}

type testFixture struct {
	server *server.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	key := make([]byte, 32)
	cipher, err := token.NewCipher(key)
	require.NoError(t, err)
	codec, err := token.NewCodec(cipher, []byte("test-secret"))
	require.NoError(t, err)

	stores := server.Stores{
		Accounts: accountrepofake.NewFakeAccountRepo(),
		History:  historyrepofake.NewFakeHistoryRepo(),
		EPDS:     epdsrepofake.NewFakeEPDSRepo(),
	}

	verifier := stubVerifier{claims: federated.Claims{Subject: "uid-1", Email: testEmail, DisplayName: "Ana"}}
	authService, err := auth.NewService(
		auth.Repos{Accounts: stores.Accounts, History: stores.History},
		codec, verifier, email.LogDispatcher{},
		auth.WithOTPGenerator(func() string { return testOTP }))
	require.NoError(t, err)

	srv, err := server.New(testConfig{}, authService, stores)
	require.NoError(t, err)

	return &testFixture{server: srv}
}

// do issues a JSON request through the full middleware chain.
func (f *testFixture) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("x-api-key", testAPIKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// registerAndLogin runs the happy registration path and returns a session token.
func (f *testFixture) registerAndLogin(t *testing.T) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/register", "", map[string]string{
		"email": testEmail, "password": "pw1", "name": "Ana",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/verify-otp", "", map[string]string{
		"email": testEmail, "otp": testOTP,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": testEmail, "password": "pw1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	f.decode(t, rec, &session)
	require.Equal(t, "Ana", session.Name)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestHealthNeedsNoAPIKey(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyGate(t *testing.T) {
	f := setupTestFixture(t)

	for _, key := range []string{"", "wrong-key"} {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{}`))
		if key != "" {
			req.Header.Set("x-api-key", key)
		}
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, "key %q", key)
	}
}

func TestRegistrationFlow(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndLogin(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	body := map[string]string{"email": testEmail, "password": "pw1", "name": "Ana"}

	rec := f.do(t, http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.do(t, http.MethodPost, "/register", "", map[string]string{"email": testEmail})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.do(t, http.MethodPost, "/register", "", map[string]string{
		"email": testEmail, "password": "pw1", "name": "Ana",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/verify-otp", "", map[string]string{
		"email": testEmail, "otp": "000000",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginBeforeVerification(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.do(t, http.MethodPost, "/register", "", map[string]string{
		"email": testEmail, "password": "pw1", "name": "Ana",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": testEmail, "password": "pw1",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAndLogin(t)

	rec := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": testEmail, "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFederatedLogin(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodPost, "/login_oauth", "", map[string]string{"id_token": "assertion"})
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	f.decode(t, rec, &session)
	require.Equal(t, "Ana", session.Name)

	// The minted token opens the protected routes.
	rec = f.do(t, http.MethodGet, "/profile", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	f := setupTestFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/profile"},
		{http.MethodGet, "/login-history"},
		{http.MethodGet, "/api/epds/history"},
	} {
		rec := f.do(t, route.method, route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestProtectedRoutesRejectGarbageToken(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.do(t, http.MethodGet, "/profile", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	f := setupTestFixture(t)
	bearer := f.registerAndLogin(t)

	rec := f.do(t, http.MethodGet, "/profile", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Age   int    `json:"age"`
	}
	f.decode(t, rec, &profile)
	require.Equal(t, testEmail, profile.Email)
	require.Equal(t, "Ana", profile.Name)

	// Partial update keeps the untouched fields.
	rec = f.do(t, http.MethodPut, "/profile", bearer, map[string]any{"age": 31})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/profile", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f.decode(t, rec, &profile)
	require.Equal(t, "Ana", profile.Name)
	require.Equal(t, 31, profile.Age)
}

func TestProfileDelete(t *testing.T) {
	f := setupTestFixture(t)
	bearer := f.registerAndLogin(t)

	rec := f.do(t, http.MethodDelete, "/profile", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/profile", bearer, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginHistory(t *testing.T) {
	f := setupTestFixture(t)
	bearer := f.registerAndLogin(t)

	rec := f.do(t, http.MethodGet, "/login-history", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		Device string `json:"device"`
		IP     string `json:"ip"`
	}
	f.decode(t, rec, &entries)
	require.Len(t, entries, 1)
}

func TestEPDSSubmitAndHistory(t *testing.T) {
	f := setupTestFixture(t)
	bearer := f.registerAndLogin(t)

	tests := []struct {
		score  int
		result string
	}{
		{5, "low risk"},
		{9, "possible depression"},
		{13, "high risk of depression"},
	}

	for _, tc := range tests {
		rec := f.do(t, http.MethodPost, "/api/epds", bearer, map[string]int{"score": tc.score})
		require.Equal(t, http.StatusCreated, rec.Code)

		var record struct {
			Score  int    `json:"score"`
			Result string `json:"result"`
		}
		f.decode(t, rec, &record)
		require.Equal(t, tc.score, record.Score)
		require.Equal(t, tc.result, record.Result)
	}

	rec := f.do(t, http.MethodGet, "/api/epds/history", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []struct {
		Score int `json:"score"`
	}
	f.decode(t, rec, &records)
	require.Len(t, records, 3)
	require.Equal(t, 5, records[0].Score) // oldest first
}

func TestEPDSRejectsOutOfRangeScore(t *testing.T) {
	f := setupTestFixture(t)
	bearer := f.registerAndLogin(t)

	for _, score := range []int{-1, 31} {
		rec := f.do(t, http.MethodPost, "/api/epds", bearer, map[string]int{"score": score})
		require.Equal(t, http.StatusBadRequest, rec.Code, "score %d", score)
	}
}
