package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CheckConsistency returns the sum of all account balances alongside the net
// of all signed entry amounts. The two sums are taken in a single statement
// so they observe the same snapshot.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalBalance, totalEntryNet decimal.Decimal, err error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COALESCE(SUM(CASE WHEN direction = 'CREDIT' THEN amount ELSE -amount END), 0) FROM entries)
	`

	var balanceSum, entryNet pgtype.Numeric

	err = r.pool.QueryRow(ctx, query).Scan(&balanceSum, &entryNet)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(balanceSum), numericToDecimal(entryNet), nil
}
