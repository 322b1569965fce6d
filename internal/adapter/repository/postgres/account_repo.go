package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
)

const uniqueViolationCode = "23505"

const accountColumns = `id, name, email, password_hash, balance, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account inside the given transaction.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO accounts (id, name, email, password_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := pgxTx.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		decimalToNumeric(account.Balance),
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return domain.ErrEmailTaken
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves an account by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, email))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	return r.scanAccount(pgxTx.QueryRow(ctx, query, id))
}

// GetByIDsForUpdate retrieves multiple accounts with FOR UPDATE locks. Rows
// are locked in ascending ID order regardless of the order of ids.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := pgxTx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`

	_, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))

	return err
}

// List retrieves accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&balance,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}
