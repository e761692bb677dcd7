package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/momstretch/momstretch-server/epds"
)

const maxEPDSScore = 30 // 10 questions scored 0-3

type epdsSubmitRequest struct {
	Score *int `json:"score"`
}

// EPDSSubmitHandler scores a completed Edinburgh Postnatal Depression Scale
// questionnaire and stores the result against the account.
func (s *Server) EPDSSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req epdsSubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if req.Score == nil || *req.Score < 0 || *req.Score > maxEPDSScore {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "score must be between 0 and 30"})
			return
		}

		record := &epds.Record{
			AccountID: AccountIDFromContext(r.Context()),
			Score:     *req.Score,
			Result:    epds.ResultForScore(*req.Score),
			Date:      time.Now().UTC(),
		}
		if err := s.stores.EPDS.Save(r.Context(), record); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, record)
	}
}

func (s *Server) EPDSHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.stores.EPDS.ListByAccount(r.Context(), AccountIDFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if records == nil {
			records = []*epds.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}
