// Package mocks provides in-memory test doubles for the usecase
// repositories. Store emulates the durable store's transactional behavior:
// Begin serializes transactions, writes are staged until Commit, and
// Rollback discards them, so engine tests can exercise atomicity and
// interleaving without a database.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
)

// Store is an in-memory account store plus entry log.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	entries  []*domain.Entry

	// EntryCreateErr, when set, is consulted before staging an entry write.
	// Returning a non-nil error simulates a store failure mid-commit.
	EntryCreateErr func(e *domain.Entry) error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{accounts: make(map[string]*domain.Account)}
}

// Seed installs committed accounts.
func (s *Store) Seed(accounts ...*domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range accounts {
		copied := *a
		s.accounts[a.ID] = &copied
	}
}

// Balance returns the committed balance of an account.
func (s *Store) Balance(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[id]; ok {
		return a.Balance
	}

	return decimal.Zero
}

// TotalBalance returns the sum of all committed balances.
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, a := range s.accounts {
		total = total.Add(a.Balance)
	}

	return total
}

// Entries returns a snapshot of the committed entry log.
func (s *Store) Entries() []*domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

// EntriesFor returns committed entries for one account, oldest first.
func (s *Store) EntriesFor(accountID string) []*domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Entry
	for _, e := range s.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}

	return out
}

// CheckConsistency implements usecase.LedgerRepository over committed state.
func (s *Store) CheckConsistency(_ context.Context) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalBalance := decimal.Zero
	for _, a := range s.accounts {
		totalBalance = totalBalance.Add(a.Balance)
	}

	totalNet := decimal.Zero
	for _, e := range s.entries {
		totalNet = totalNet.Add(e.Signed())
	}

	return totalBalance, totalNet, nil
}

type storeTx struct {
	store *Store
	done  bool

	stagedBalances map[string]decimal.Decimal
	stagedAccounts []*domain.Account
	stagedEntries  []*domain.Entry
}

func (t *storeTx) Commit(_ context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}

	for _, a := range t.stagedAccounts {
		copied := *a
		t.store.accounts[a.ID] = &copied
	}

	for id, balance := range t.stagedBalances {
		if a, ok := t.store.accounts[id]; ok {
			a.Balance = balance
		}
	}

	t.store.entries = append(t.store.entries, t.stagedEntries...)

	t.done = true
	t.store.mu.Unlock()

	return nil
}

func (t *storeTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}

	t.done = true
	t.store.mu.Unlock()

	return nil
}

// view reads an account as seen inside the transaction: staged writes win
// over committed state.
func (t *storeTx) view(id string) (*domain.Account, bool) {
	for _, a := range t.stagedAccounts {
		if a.ID == id {
			copied := *a
			if balance, ok := t.stagedBalances[id]; ok {
				copied.Balance = balance
			}
			return &copied, true
		}
	}

	a, ok := t.store.accounts[id]
	if !ok {
		return nil, false
	}

	copied := *a
	if balance, ok := t.stagedBalances[id]; ok {
		copied.Balance = balance
	}

	return &copied, true
}

// TxManager implements usecase.TransactionManager over a Store.
type TxManager struct {
	Store *Store
}

// Begin starts a transaction. Transactions are fully serialized, the
// in-memory stand-in for per-account row locks.
func (m *TxManager) Begin(_ context.Context) (usecase.Transaction, error) {
	m.Store.mu.Lock()

	return &storeTx{
		store:          m.Store,
		stagedBalances: make(map[string]decimal.Decimal),
	}, nil
}

// AccountRepository implements usecase.AccountRepository over a Store.
type AccountRepository struct {
	Store *Store
}

func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	t := tx.(*storeTx)

	for _, existing := range r.Store.accounts {
		if existing.Email == account.Email {
			return domain.ErrEmailTaken
		}
	}
	for _, staged := range t.stagedAccounts {
		if staged.Email == account.Email {
			return domain.ErrEmailTaken
		}
	}

	copied := *account
	t.stagedAccounts = append(t.stagedAccounts, &copied)

	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	a, ok := r.Store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	copied := *a

	return &copied, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	for _, a := range r.Store.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}

	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	t := tx.(*storeTx)

	a, ok := t.view(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return a, nil
}

func (r *AccountRepository) GetByIDsForUpdate(_ context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t := tx.(*storeTx)

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := t.view(id); ok {
			accounts = append(accounts, a)
		}
	}

	return accounts, nil
}

func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, _ time.Time) error {
	t := tx.(*storeTx)
	t.stagedBalances[id] = balance

	return nil
}

func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	ids := make([]string, 0, len(r.Store.accounts))
	for id := range r.Store.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*domain.Account
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) >= limit {
			break
		}
		copied := *r.Store.accounts[id]
		out = append(out, &copied)
	}

	return out, nil
}

// EntryRepository implements usecase.EntryRepository over a Store.
type EntryRepository struct {
	Store *Store
}

func (r *EntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t := tx.(*storeTx)

	if r.Store.EntryCreateErr != nil {
		if err := r.Store.EntryCreateErr(entry); err != nil {
			return err
		}
	}

	copied := *entry
	t.stagedEntries = append(t.stagedEntries, &copied)

	return nil
}

func (r *EntryRepository) ListByAccount(_ context.Context, accountID string, limit int) ([]*domain.Entry, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	var out []*domain.Entry
	for i := len(r.Store.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.Store.entries[i].AccountID == accountID {
			copied := *r.Store.entries[i]
			out = append(out, &copied)
		}
	}

	return out, nil
}

// SessionRepository is an in-memory usecase.SessionRepository.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*domain.Session)}
}

func (r *SessionRepository) Create(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *session
	r.sessions[session.Token] = &copied

	return nil
}

func (r *SessionRepository) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	copied := *s

	return &copied, nil
}

func (r *SessionRepository) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)

	return nil
}

func (r *SessionRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for token, s := range r.sessions {
		if !s.ExpiresAt.After(before) {
			delete(r.sessions, token)
			removed++
		}
	}

	return removed, nil
}

// IDGenerator produces deterministic sequential IDs.
type IDGenerator struct {
	Prefix  string
	counter atomic.Int64
}

func (g *IDGenerator) Generate() string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}

	return fmt.Sprintf("%s-%04d", prefix, g.counter.Add(1))
}

// TokenManager is an in-memory usecase.TokenManager issuing opaque tokens.
type TokenManager struct {
	TTL time.Duration

	mu      sync.Mutex
	counter int
	issued  map[string]string
}

func (m *TokenManager) Issue(accountID, _ string) (string, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.issued == nil {
		m.issued = make(map[string]string)
	}

	ttl := m.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	m.counter++
	token := fmt.Sprintf("token-%s-%d", accountID, m.counter)
	m.issued[token] = accountID

	return token, time.Now().UTC().Add(ttl), nil
}

func (m *TokenManager) Verify(token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	accountID, ok := m.issued[token]
	if !ok {
		return "", domain.ErrUnauthenticated
	}

	return accountID, nil
}
