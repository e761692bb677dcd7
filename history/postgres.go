package history

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepo struct {
	db *sql.DB
}

var _ Repo = (*PostgresRepo)(nil)

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Record(ctx context.Context, entry *Entry) error {
	query := `INSERT INTO login_history (account_id, logged_in_at, user_agent, source_ip)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		entry.AccountID, entry.Timestamp, entry.UserAgent, entry.SourceIP).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListByAccount(ctx context.Context, accountID string) ([]*Entry, error) {
	query := `SELECT id, account_id, logged_in_at, user_agent, source_ip
		FROM login_history
		WHERE account_id = $1
		ORDER BY logged_in_at DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Timestamp,
			&entry.UserAgent, &entry.SourceIP); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}
