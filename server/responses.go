package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/momstretch/momstretch-server/accounts"
	"github.com/momstretch/momstretch-server/auth"
	"github.com/momstretch/momstretch-server/token"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Error: userMessage(err)})
}

// statusForError maps the service error taxonomy onto HTTP status codes.
// Anything unrecognised is a 500 with a generic body, the real error stays
// in the logs.
func statusForError(err error) int {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, accounts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrExpiredOTP),
		errors.Is(err, auth.ErrAlreadyVerified):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnverifiedAccount):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrBadCredentials),
		errors.Is(err, auth.ErrInvalidAssertion),
		errors.Is(err, auth.ErrExpiredAssertion),
		errors.Is(err, auth.ErrProviderMismatch),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrExpiredToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	if statusForError(err) == http.StatusInternalServerError {
		log.Error().Err(err).Msg("internal server error")
		return "internal server error"
	}
	return errors.Cause(err).Error()
}
