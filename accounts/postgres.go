package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// PostgresRepo stores accounts in the accounts table. The unique index on
// email is what resolves concurrent registrations; the application never
// relies on a check-then-write alone.
type PostgresRepo struct {
	db *sql.DB
}

var _ Repo = (*PostgresRepo)(nil)

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const accountColumns = `id, email, password_hash, name, program, photo_url, age,
	is_verified, provider, provider_subject, otp_code, otp_expires_at, created_at`

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepo) Insert(ctx context.Context, account *Account) (string, error) {
	query := `INSERT INTO accounts
		(email, password_hash, name, program, photo_url, age, is_verified,
		 provider, provider_subject, otp_code, otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, account.Name, account.Program,
		account.PhotoURL, account.Age, account.Verified,
		account.Provider, account.ProviderSubject,
		nullString(account.OTPCode), nullTime(account.OTPExpiresAt),
	).Scan(&account.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return account.ID, nil
}

func (r *PostgresRepo) Update(ctx context.Context, account *Account) error {
	query := `UPDATE accounts SET
		email = $2, password_hash = $3, name = $4, program = $5,
		photo_url = $6, age = $7, is_verified = $8,
		provider = $9, provider_subject = $10
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Name,
		account.Program, account.PhotoURL, account.Age, account.Verified,
		account.Provider, account.ProviderSubject)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepo) SetVerified(ctx context.Context, id string) error {
	// A single statement keeps verified=true and passcode clearing atomic.
	query := `UPDATE accounts SET is_verified = TRUE, otp_code = NULL, otp_expires_at = NULL
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepo) SetProviderLink(ctx context.Context, id, provider, subject string) error {
	query := `UPDATE accounts SET provider = $2, provider_subject = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, provider, subject)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepo) scanAccount(row *sql.Row) (*Account, error) {
	account := &Account{}
	var otpCode sql.NullString
	var otpExpiresAt sql.NullTime

	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash,
		&account.Name, &account.Program, &account.PhotoURL, &account.Age,
		&account.Verified, &account.Provider, &account.ProviderSubject,
		&otpCode, &otpExpiresAt, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.OTPCode = otpCode.String
	if otpExpiresAt.Valid {
		account.OTPExpiresAt = otpExpiresAt.Time
	}
	return account, nil
}

func checkFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
