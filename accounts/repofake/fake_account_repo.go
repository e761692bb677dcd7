package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/momstretch/momstretch-server/accounts"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

type FakeAccountRepo struct {
	accounts map[string]*accounts.Account
	emailIds map[string]string // email to account id
	lock     sync.RWMutex
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts: make(map[string]*accounts.Account),
		emailIds: make(map[string]string),
	}
}

func (ar *FakeAccountRepo) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.emailIds[email]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return copyAccount(ar.accounts[id]), nil
}

func (ar *FakeAccountRepo) GetByID(_ context.Context, id string) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	account, ok := ar.accounts[id]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return copyAccount(account), nil
}

func (ar *FakeAccountRepo) Insert(_ context.Context, account *accounts.Account) (string, error) {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	if _, exists := ar.emailIds[account.Email]; exists {
		return "", accounts.ErrDuplicateEmail
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	ar.accounts[account.ID] = copyAccount(account)
	ar.emailIds[account.Email] = account.ID
	return account.ID, nil
}

func (ar *FakeAccountRepo) Update(_ context.Context, account *accounts.Account) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	existing, ok := ar.accounts[account.ID]
	if !ok {
		return accounts.ErrNotFound
	}
	delete(ar.emailIds, existing.Email)
	ar.accounts[account.ID] = copyAccount(account)
	ar.emailIds[account.Email] = account.ID
	return nil
}

func (ar *FakeAccountRepo) SetVerified(_ context.Context, id string) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	account.Verified = true
	account.OTPCode = ""
	account.OTPExpiresAt = time.Time{}
	return nil
}

func (ar *FakeAccountRepo) SetProviderLink(_ context.Context, id, provider, subject string) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	account.Provider = provider
	account.ProviderSubject = subject
	return nil
}

func (ar *FakeAccountRepo) Delete(_ context.Context, id string) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	delete(ar.emailIds, account.Email)
	delete(ar.accounts, id)
	return nil
}

func copyAccount(a *accounts.Account) *accounts.Account {
	c := *a
	return &c
}
