package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
	"github.com/kodbank/kodbank/internal/usecase/mocks"
)

func newAuthFixture(t *testing.T, tokenTTL time.Duration) (*usecase.AuthUseCase, *mocks.Store, *mocks.SessionRepository) {
	t.Helper()

	store := mocks.NewStore()

	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	store.Seed(&domain.Account{
		ID:           "acc-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Balance:      decimal.RequireFromString("1000"),
	})

	sessions := mocks.NewSessionRepository()
	uc := usecase.NewAuthUseCase(
		&mocks.AccountRepository{Store: store},
		sessions,
		&mocks.TokenManager{TTL: tokenTTL},
		&mocks.IDGenerator{Prefix: "sess"},
	)

	return uc, store, sessions
}

func TestAuthUseCase_Login(t *testing.T) {
	uc, _, _ := newAuthFixture(t, time.Hour)

	account, token, err := uc.Login(context.Background(), "Alice@Example.COM", "Sup3rSecret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a session token")
	}
	if account.PasswordHash != "" {
		t.Errorf("expected password hash to be stripped")
	}

	accountID, err := uc.ResolveSession(context.Background(), token)
	if err != nil {
		t.Fatalf("expected fresh token to resolve, got %v", err)
	}
	if accountID != "acc-1" {
		t.Fatalf("expected acc-1, got %s", accountID)
	}
}

func TestAuthUseCase_LoginFailures(t *testing.T) {
	uc, _, _ := newAuthFixture(t, time.Hour)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "alice@example.com", password: "WrongPass1"},
		{name: "unknown email", email: "ghost@example.com", password: "Sup3rSecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := uc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthUseCase_ResolveSessionErrors(t *testing.T) {
	uc, _, _ := newAuthFixture(t, time.Hour)

	if _, err := uc.ResolveSession(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}

	if _, err := uc.ResolveSession(context.Background(), "forged-token"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown token, got %v", err)
	}
}

func TestAuthUseCase_ExpiredSession(t *testing.T) {
	uc, _, _ := newAuthFixture(t, -time.Minute)

	_, token, err := uc.Login(context.Background(), "alice@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := uc.ResolveSession(context.Background(), token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestAuthUseCase_Logout(t *testing.T) {
	uc, _, _ := newAuthFixture(t, time.Hour)

	_, token, err := uc.Login(context.Background(), "alice@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := uc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := uc.ResolveSession(context.Background(), token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}

	// Logging out an already-revoked token is not an error.
	if err := uc.Logout(context.Background(), token); err != nil {
		t.Fatalf("repeated logout failed: %v", err)
	}
}

func TestAuthUseCase_PurgeExpired(t *testing.T) {
	uc, _, sessions := newAuthFixture(t, -time.Minute)

	for range 3 {
		if _, _, err := uc.Login(context.Background(), "alice@example.com", "Sup3rSecret"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
	}

	deleted, err := uc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 purged sessions, got %d", deleted)
	}

	if _, err := sessions.GetByToken(context.Background(), "token-acc-1-1"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected purged session to be gone, got %v", err)
	}
}
