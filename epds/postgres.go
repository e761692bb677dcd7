package epds

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

func (r *PostgresRepo) Save(ctx context.Context, record *Record) error {
	query := `INSERT INTO epds_records (account_id, score, result, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		record.AccountID, record.Score, string(record.Result), record.Date).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListByAccount(ctx context.Context, accountID string) ([]*Record, error) {
	query := `SELECT id, account_id, score, result, recorded_at
		FROM epds_records
		WHERE account_id = $1
		ORDER BY recorded_at ASC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record := &Record{}
		var result string
		if err := rows.Scan(&record.ID, &record.AccountID, &record.Score,
			&result, &record.Date); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		record.Result = Result(result)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}
