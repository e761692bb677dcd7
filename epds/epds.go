// Package epds stores Edinburgh Postnatal Depression Scale screening results
// and derives the risk band shown to the user.
package epds

import (
	"context"
	"time"
)

type Result string

const (
	ResultHighRisk     Result = "high risk of depression"
	ResultPossibleRisk Result = "possible depression"
	ResultLowRisk      Result = "low risk"
)

// ResultForScore maps a total EPDS score onto its screening band.
func ResultForScore(score int) Result {
	switch {
	case score >= 13:
		return ResultHighRisk
	case score >= 9:
		return ResultPossibleRisk
	default:
		return ResultLowRisk
	}
}

type Record struct {
	ID        string    `json:"id,omitempty"`
	AccountID string    `json:"account_id"`
	Score     int       `json:"score"`
	Result    Result    `json:"result"`
	Date      time.Time `json:"date"`
}

type Repo interface {
	Save(ctx context.Context, record *Record) error
	// ListByAccount returns records oldest first, for charting score trends.
	ListByAccount(ctx context.Context, accountID string) ([]*Record, error)
}
