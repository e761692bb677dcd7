package server

import (
	"context"
	"net/http"
)

type ContextKey string

const accountIDKey ContextKey = "accountID"

// RequireAuth resolves the Authorization header into an account id and puts
// it on the request context. Token failures never reveal which layer
// rejected the token.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := s.auth.Authorize(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next(w, r.WithContext(ctx))
	}
}

// AccountIDFromContext returns the id RequireAuth stored, empty when the
// request never passed through it.
func AccountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}
