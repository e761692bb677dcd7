package accounts

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repo is the credential store. Each operation is atomic at account
// granularity; Insert enforces email uniqueness at the store so two
// concurrent registrations for the same email cannot both succeed.
type Repo interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Insert(ctx context.Context, account *Account) (string, error)
	Update(ctx context.Context, account *Account) error
	// SetVerified marks the account verified and clears the passcode fields
	// in the same store operation, so a confirmed account can never retain a
	// replayable passcode.
	SetVerified(ctx context.Context, id string) error
	SetProviderLink(ctx context.Context, id, provider, subject string) error
	Delete(ctx context.Context, id string) error
}
