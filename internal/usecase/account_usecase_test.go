package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
	"github.com/kodbank/kodbank/internal/usecase/mocks"
)

func newAccountFixture(store *mocks.Store) *usecase.AccountUseCase {
	return usecase.NewAccountUseCase(
		&mocks.TxManager{Store: store},
		&mocks.AccountRepository{Store: store},
		&mocks.EntryRepository{Store: store},
		&mocks.IDGenerator{Prefix: "acc"},
	)
}

func TestAccountUseCase_Register(t *testing.T) {
	store := mocks.NewStore()
	uc := newAccountFixture(store)

	account, err := uc.Register(context.Background(), usecase.RegisterInput{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "Sup3rSecret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !account.Balance.Equal(usecase.OpeningBalance) {
		t.Errorf("expected opening balance %s, got %s", usecase.OpeningBalance, account.Balance)
	}
	if account.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", account.Email)
	}
	if account.PasswordHash != "" {
		t.Errorf("expected password hash to be stripped from the result")
	}

	entries := store.EntriesFor(account.ID)
	if len(entries) != 1 {
		t.Fatalf("expected one opening entry, got %d", len(entries))
	}
	if entries[0].Direction != domain.DirectionCredit || entries[0].Description != domain.DescriptionOpening {
		t.Errorf("unexpected opening entry: %+v", entries[0])
	}
	if !entries[0].Amount.Equal(usecase.OpeningBalance) {
		t.Errorf("expected opening entry amount %s, got %s", usecase.OpeningBalance, entries[0].Amount)
	}

	// With the grant recorded as an entry, balances reconcile from day one.
	totalBalance, totalNet, err := store.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("consistency check failed: %v", err)
	}
	if !totalBalance.Equal(totalNet) {
		t.Fatalf("balances (%s) and entry net (%s) diverged after registration", totalBalance, totalNet)
	}
}

func TestAccountUseCase_RegisterDuplicateEmail(t *testing.T) {
	store := mocks.NewStore()
	uc := newAccountFixture(store)

	input := usecase.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "Sup3rSecret"}

	if _, err := uc.Register(context.Background(), input); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	input.Name = "Impostor"
	if _, err := uc.Register(context.Background(), input); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// The duplicate attempt must leave no trace.
	if got := store.TotalBalance(); !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected one account worth of balance, got %s", got)
	}
	if entries := store.Entries(); len(entries) != 1 {
		t.Fatalf("expected one opening entry, got %d", len(entries))
	}
}

func TestAccountUseCase_RegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.RegisterInput
		wantErr error
	}{
		{
			name:    "empty name",
			input:   usecase.RegisterInput{Name: "", Email: "a@example.com", Password: "Sup3rSecret"},
			wantErr: domain.ErrInvalidName,
		},
		{
			name:    "bad email",
			input:   usecase.RegisterInput{Name: "Alice", Email: "not-an-email", Password: "Sup3rSecret"},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "weak password",
			input:   usecase.RegisterInput{Name: "Alice", Email: "a@example.com", Password: "short"},
			wantErr: domain.ErrPasswordTooWeak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			uc := newAccountFixture(store)

			if _, err := uc.Register(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	store := mocks.NewStore()
	store.Seed(&domain.Account{
		ID:           "acc-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "secret-hash",
		Balance:      decimal.RequireFromString("1000"),
	})
	uc := newAccountFixture(store)

	account, err := uc.GetAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.PasswordHash != "" {
		t.Errorf("expected password hash to be stripped")
	}

	if _, err := uc.GetAccount(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
