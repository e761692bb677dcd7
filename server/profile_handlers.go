package server

import (
	"encoding/json"
	"net/http"
)

type profileUpdateRequest struct {
	Name     *string `json:"name"`
	Program  *string `json:"program"`
	PhotoURL *string `json:"photo_url"`
	Age      *int    `json:"age"`
}

func (s *Server) ProfileGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := s.stores.Accounts.GetByID(r.Context(), AccountIDFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

// ProfileUpdateHandler applies a partial update. Absent fields keep their
// stored values.
func (s *Server) ProfileUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		account, err := s.stores.Accounts.GetByID(r.Context(), AccountIDFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}

		if req.Name != nil {
			account.Name = *req.Name
		}
		if req.Program != nil {
			account.Program = *req.Program
		}
		if req.PhotoURL != nil {
			account.PhotoURL = *req.PhotoURL
		}
		if req.Age != nil {
			account.Age = *req.Age
		}

		if err := s.stores.Accounts.Update(r.Context(), account); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func (s *Server) ProfileDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.stores.Accounts.Delete(r.Context(), AccountIDFromContext(r.Context())); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "account deleted"})
	}
}
