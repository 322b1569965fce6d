package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries. Entries are
// append-only; there is no update or delete.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Entry, error)
}

// SessionRepository defines data access for session records.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// LedgerRepository defines ledger-wide aggregate queries.
type LedgerRepository interface {
	// CheckConsistency returns the sum of all account balances and the sum
	// of all signed entry amounts. The two must be equal.
	CheckConsistency(ctx context.Context) (totalBalance, totalEntryNet decimal.Decimal, err error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient store failures. Implementations
// must only retry errors where nothing committed.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	Issue(accountID, email string) (token string, expiresAt time.Time, err error)
	Verify(token string) (accountID string, err error)
}

// AssistantClient forwards a prompt to an external text-generation service.
type AssistantClient interface {
	Complete(ctx context.Context, message string) (string, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
