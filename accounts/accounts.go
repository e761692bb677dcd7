package accounts

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account is one registered user of the app. An account is password
// authenticatable (PasswordHash set), federation authenticatable (Provider
// and ProviderSubject set), or both after a link-back.
type Account struct {
	ID           string    `json:"id,omitempty"`    // Unique identifier for the account
	Email        string    `json:"email,omitempty"` // Unique across all accounts
	PasswordHash string    `json:"-"`               // bcrypt hash - never serialize
	Name         string    `json:"name,omitempty"`  // Display name
	Program      string    `json:"program,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Age          int       `json:"age,omitempty"`
	Verified     bool      `json:"verified,omitempty"`

	// Federated linkage, set on first federated login
	Provider        string `json:"provider,omitempty"`
	ProviderSubject string `json:"provider_subject,omitempty"`

	// One-time passcode, present only while verification is pending and
	// cleared on confirmation or expiry
	OTPCode      string    `json:"-"`
	OTPExpiresAt time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

func (a *Account) HasProviderLink() bool {
	return a.Provider != ""
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
