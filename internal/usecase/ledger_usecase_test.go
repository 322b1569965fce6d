package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
	"github.com/kodbank/kodbank/internal/usecase/mocks"
)

func newLedgerFixture(store *mocks.Store) *usecase.LedgerUseCase {
	return usecase.NewLedgerUseCase(
		&mocks.TxManager{Store: store},
		&mocks.AccountRepository{Store: store},
		&mocks.EntryRepository{Store: store},
		&mocks.IDGenerator{Prefix: "op"},
		nil,
	)
}

func seedAccount(store *mocks.Store, id, name, email, balance string) {
	store.Seed(&domain.Account{
		ID:      id,
		Name:    name,
		Email:   email,
		Balance: decimal.RequireFromString(balance),
	})
}

func TestLedgerUseCase_Deposit(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
	uc := newLedgerFixture(store)

	entry, err := uc.Deposit(context.Background(), "acc-1", decimal.RequireFromString("250.50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("expected balance 1250.50, got %s", got)
	}

	if entry.Direction != domain.DirectionCredit {
		t.Errorf("expected CREDIT entry, got %s", entry.Direction)
	}
	if entry.Description != domain.DescriptionDeposit {
		t.Errorf("expected description %q, got %q", domain.DescriptionDeposit, entry.Description)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("250.50")) {
		t.Errorf("expected entry amount 250.50, got %s", entry.Amount)
	}

	if entries := store.EntriesFor("acc-1"); len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
}

func TestLedgerUseCase_DepositInvalidAmount(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
	uc := newLedgerFixture(store)

	for _, amount := range []string{"0", "-10"} {
		if _, err := uc.Deposit(context.Background(), "acc-1", decimal.RequireFromString(amount)); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected balance unchanged at 1000, got %s", got)
	}
	if entries := store.EntriesFor("acc-1"); len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestLedgerUseCase_DepositUnknownAccount(t *testing.T) {
	store := mocks.NewStore()
	uc := newLedgerFixture(store)

	if _, err := uc.Deposit(context.Background(), "missing", decimal.RequireFromString("10")); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedgerUseCase_Withdraw(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1250.50")
	uc := newLedgerFixture(store)

	entry, err := uc.Withdraw(context.Background(), "acc-1", decimal.RequireFromString("250.50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected balance 1000, got %s", got)
	}
	if entry.Direction != domain.DirectionDebit {
		t.Errorf("expected DEBIT entry, got %s", entry.Direction)
	}
	if entry.Description != domain.DescriptionWithdrawal {
		t.Errorf("expected description %q, got %q", domain.DescriptionWithdrawal, entry.Description)
	}
}

func TestLedgerUseCase_WithdrawInsufficientFunds(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1250.50")
	uc := newLedgerFixture(store)

	_, err := uc.Withdraw(context.Background(), "acc-1", decimal.RequireFromString("2000"))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("expected balance unchanged at 1250.50, got %s", got)
	}
	if entries := store.EntriesFor("acc-1"); len(entries) != 0 {
		t.Fatalf("expected no entries after rejected withdrawal, got %d", len(entries))
	}
}

func TestLedgerUseCase_WithdrawFullBalance(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
	uc := newLedgerFixture(store)

	if _, err := uc.Withdraw(context.Background(), "acc-1", decimal.RequireFromString("1000")); err != nil {
		t.Fatalf("withdrawing the exact balance must succeed, got %v", err)
	}

	if got := store.Balance("acc-1"); !got.IsZero() {
		t.Fatalf("expected zero balance, got %s", got)
	}
}

func TestLedgerUseCase_Transfer(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1250.50")
	seedAccount(store, "acc-2", "Bob", "bob@example.com", "1000")
	uc := newLedgerFixture(store)

	result, err := uc.Transfer(context.Background(), "acc-1", "bob@example.com", decimal.RequireFromString("300"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("950.50")) {
		t.Fatalf("expected sender balance 950.50, got %s", got)
	}
	if got := store.Balance("acc-2"); !got.Equal(decimal.RequireFromString("1300")) {
		t.Fatalf("expected recipient balance 1300, got %s", got)
	}

	if result.DebitEntry.OperationID != result.CreditEntry.OperationID {
		t.Errorf("expected both legs to share one operation ID, got %s and %s",
			result.DebitEntry.OperationID, result.CreditEntry.OperationID)
	}
	if result.DebitEntry.AccountID != "acc-1" || result.DebitEntry.Direction != domain.DirectionDebit {
		t.Errorf("unexpected debit leg: %+v", result.DebitEntry)
	}
	if result.CreditEntry.AccountID != "acc-2" || result.CreditEntry.Direction != domain.DirectionCredit {
		t.Errorf("unexpected credit leg: %+v", result.CreditEntry)
	}
	if result.DebitEntry.Description != "Transfer to Bob" {
		t.Errorf("expected debit description 'Transfer to Bob', got %q", result.DebitEntry.Description)
	}
	if result.CreditEntry.Description != "Transfer from Alice" {
		t.Errorf("expected credit description 'Transfer from Alice', got %q", result.CreditEntry.Description)
	}

	if entries := store.Entries(); len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
}

func TestLedgerUseCase_TransferErrors(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		toEmail string
		amount  string
		wantErr error
	}{
		{name: "invalid amount", from: "acc-1", toEmail: "bob@example.com", amount: "0", wantErr: domain.ErrInvalidAmount},
		{name: "negative amount", from: "acc-1", toEmail: "bob@example.com", amount: "-5", wantErr: domain.ErrInvalidAmount},
		{name: "unknown recipient", from: "acc-1", toEmail: "ghost@example.com", amount: "10", wantErr: domain.ErrRecipientNotFound},
		{name: "insufficient funds", from: "acc-1", toEmail: "bob@example.com", amount: "5000", wantErr: domain.ErrInsufficientFunds},
		{name: "self transfer", from: "acc-1", toEmail: "alice@example.com", amount: "10", wantErr: domain.ErrSelfTransfer},
		{name: "solvency checked before self transfer", from: "acc-1", toEmail: "alice@example.com", amount: "5000", wantErr: domain.ErrInsufficientFunds},
		{name: "unknown sender", from: "ghost", toEmail: "bob@example.com", amount: "10", wantErr: domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
			seedAccount(store, "acc-2", "Bob", "bob@example.com", "1000")
			uc := newLedgerFixture(store)

			_, err := uc.Transfer(context.Background(), tt.from, tt.toEmail, decimal.RequireFromString(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("1000")) {
				t.Fatalf("expected sender balance unchanged, got %s", got)
			}
			if got := store.Balance("acc-2"); !got.Equal(decimal.RequireFromString("1000")) {
				t.Fatalf("expected recipient balance unchanged, got %s", got)
			}
			if entries := store.Entries(); len(entries) != 0 {
				t.Fatalf("expected no entries after failed transfer, got %d", len(entries))
			}
		})
	}
}

func TestLedgerUseCase_TransferRollbackOnEntryFailure(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
	seedAccount(store, "acc-2", "Bob", "bob@example.com", "1000")

	// Fail on the credit leg, after the debit leg has already been staged.
	storeErr := errors.New("disk full")
	store.EntryCreateErr = func(e *domain.Entry) error {
		if e.Direction == domain.DirectionCredit {
			return storeErr
		}
		return nil
	}

	uc := newLedgerFixture(store)

	_, err := uc.Transfer(context.Background(), "acc-1", "bob@example.com", decimal.RequireFromString("300"))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected sender balance rolled back to 1000, got %s", got)
	}
	if got := store.Balance("acc-2"); !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected recipient balance unchanged at 1000, got %s", got)
	}
	if entries := store.Entries(); len(entries) != 0 {
		t.Fatalf("expected no committed entries after rollback, got %d", len(entries))
	}
}

func TestLedgerUseCase_ConcurrentWithdrawals(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
	uc := newLedgerFixture(store)

	amount := decimal.RequireFromString("700")

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Withdraw(context.Background(), "acc-1", amount)
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
			failed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 || failed != 1 {
		t.Fatalf("expected exactly one success and one rejection, got %d/%d", succeeded, failed)
	}

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("expected final balance 300, got %s", got)
	}
	if entries := store.EntriesFor("acc-1"); len(entries) != 1 {
		t.Fatalf("expected one committed entry, got %d", len(entries))
	}
}

func TestLedgerUseCase_ConcurrentTransfersOppositeDirections(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
	seedAccount(store, "acc-2", "Bob", "bob@example.com", "1000")
	uc := newLedgerFixture(store)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if _, err := uc.Transfer(context.Background(), "acc-1", "bob@example.com", decimal.RequireFromString("100")); err != nil {
			t.Errorf("transfer acc-1 -> acc-2 failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := uc.Transfer(context.Background(), "acc-2", "alice@example.com", decimal.RequireFromString("250")); err != nil {
			t.Errorf("transfer acc-2 -> acc-1 failed: %v", err)
		}
	}()
	wg.Wait()

	if got := store.Balance("acc-1"); !got.Equal(decimal.RequireFromString("1150")) {
		t.Fatalf("expected acc-1 balance 1150, got %s", got)
	}
	if got := store.Balance("acc-2"); !got.Equal(decimal.RequireFromString("850")) {
		t.Fatalf("expected acc-2 balance 850, got %s", got)
	}
	if got := store.TotalBalance(); !got.Equal(decimal.RequireFromString("2000")) {
		t.Fatalf("transfers must conserve total balance, got %s", got)
	}
}

func TestLedgerUseCase_GetBalance(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "42.42")
	uc := newLedgerFixture(store)

	balance, err := uc.GetBalance(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("42.42")) {
		t.Fatalf("expected 42.42, got %s", balance)
	}

	if _, err := uc.GetBalance(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedgerUseCase_ListTransactions(t *testing.T) {
	store := mocks.NewStore()
	seedAccount(store, "acc-1", "Alice", "alice@example.com", "1000")
	uc := newLedgerFixture(store)

	amounts := []string{"10", "20", "30"}
	for _, a := range amounts {
		if _, err := uc.Deposit(context.Background(), "acc-1", decimal.RequireFromString(a)); err != nil {
			t.Fatalf("deposit failed: %v", err)
		}
	}

	entries, err := uc.ListTransactions(context.Background(), "acc-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	if !entries[0].Amount.Equal(decimal.RequireFromString("30")) || !entries[1].Amount.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("expected newest-first order, got %s then %s", entries[0].Amount, entries[1].Amount)
	}
}

func TestLedgerUseCase_ConsistencyAfterMixedOperations(t *testing.T) {
	store := mocks.NewStore()
	uc := newLedgerFixture(store)

	// Accounts created through registration carry a matching opening entry,
	// so balances and the signed entry log start out reconciled.
	accountUC := usecase.NewAccountUseCase(
		&mocks.TxManager{Store: store},
		&mocks.AccountRepository{Store: store},
		&mocks.EntryRepository{Store: store},
		&mocks.IDGenerator{Prefix: "reg"},
	)

	var ids []string
	for _, in := range []usecase.RegisterInput{
		{Name: "Alice", Email: "alice@example.com", Password: "Sup3rSecret"},
		{Name: "Bob", Email: "bob@example.com", Password: "Sup3rSecret"},
	} {
		account, err := accountUC.Register(context.Background(), in)
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		ids = append(ids, account.ID)
	}

	ctx := context.Background()
	if _, err := uc.Deposit(ctx, ids[0], decimal.RequireFromString("250.50")); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := uc.Withdraw(ctx, ids[1], decimal.RequireFromString("99.99")); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if _, err := uc.Transfer(ctx, ids[0], "bob@example.com", decimal.RequireFromString("300")); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if _, err := uc.Withdraw(ctx, ids[0], decimal.RequireFromString("100000")); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected rejected withdrawal, got %v", err)
	}

	totalBalance, totalNet, err := store.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("consistency check failed: %v", err)
	}
	if !totalBalance.Equal(totalNet) {
		t.Fatalf("balances (%s) and signed entry net (%s) diverged", totalBalance, totalNet)
	}
}
