package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create appends a new entry inside the given transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO entries (id, account_id, operation_id, direction, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.OperationID,
		string(entry.Direction),
		decimalToNumeric(entry.Amount),
		entry.Description,
		timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// ListByAccount retrieves the most recent entries for an account, newest
// first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Entry, error) {
	query := `
		SELECT id, account_id, operation_id, direction, amount, description, created_at
		FROM entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var (
			entry     domain.Entry
			direction string
			amount    pgtype.Numeric
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.OperationID,
			&direction,
			&amount,
			&entry.Description,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Direction = domain.Direction(direction)
		entry.Amount = numericToDecimal(amount)
		entry.CreatedAt = createdAt.Time
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
