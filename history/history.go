// Package history records successful logins. Recording is best effort: a
// sink failure must never fail the login that triggered it.
package history

import (
	"context"
	"time"
)

type Entry struct {
	ID        string    `json:"id,omitempty"`
	AccountID string    `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"device,omitempty"`
	SourceIP  string    `json:"ip,omitempty"`
}

type Repo interface {
	Record(ctx context.Context, entry *Entry) error
	// ListByAccount returns entries newest first.
	ListByAccount(ctx context.Context, accountID string) ([]*Entry, error)
}
