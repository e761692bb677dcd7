package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/momstretch/momstretch-server/auth"
	"github.com/momstretch/momstretch-server/history"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type federatedLoginRequest struct {
	IDToken string `json:"id_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// RegisterHandler creates a pending account and emails it a passcode.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if req.Email == "" || req.Password == "" || req.Name == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email, password and name are required"})
			return
		}

		if err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, messageResponse{Message: "registered, check your email for the verification code"})
	}
}

// VerifyOTPHandler confirms a pending account with its emailed passcode.
func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyOTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if req.Email == "" || req.OTP == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and otp are required"})
			return
		}

		if err := s.auth.ConfirmOTP(r.Context(), req.Email, req.OTP); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "account verified"})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
			return
		}

		session, err := s.auth.Login(r.Context(), req.Email, req.Password, loginMeta(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, Name: session.Name})
	}
}

// FederatedLoginHandler exchanges a provider id token for a local session,
// creating the account on first sight.
func (s *Server) FederatedLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req federatedLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if req.IDToken == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id_token is required"})
			return
		}

		session, err := s.auth.LoginFederated(r.Context(), req.IDToken, loginMeta(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, Name: session.Name})
	}
}

func (s *Server) LoginHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.stores.History.ListByAccount(r.Context(), AccountIDFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if entries == nil {
			entries = []*history.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func loginMeta(r *http.Request) auth.LoginMeta {
	return auth.LoginMeta{
		UserAgent: r.UserAgent(),
		SourceIP:  clientIP(r),
	}
}

// clientIP prefers the proxy-set forwarding header, falling back to the
// socket peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
