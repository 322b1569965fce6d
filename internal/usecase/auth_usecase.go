package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kodbank/kodbank/internal/domain"
)

// AuthUseCase is the session gate: it authenticates credentials, issues
// bearer tokens backed by durable session records, and resolves inbound
// tokens to an account identity.
type AuthUseCase struct {
	accountRepo AccountRepository
	sessionRepo SessionRepository
	tokens      TokenManager
	idGen       IDGenerator
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	tokens TokenManager,
	idGen IDGenerator,
) *AuthUseCase {
	return &AuthUseCase{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		idGen:       idGen,
	}
}

// Login verifies email and password and returns the account together with a
// fresh session token. The bcrypt comparison is constant-time; lookup
// failures and bad passwords are indistinguishable to the caller.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	account, err := uc.accountRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := uc.StartSession(ctx, account)
	if err != nil {
		return nil, "", err
	}

	account.PasswordHash = ""

	return account, token, nil
}

// StartSession issues a token for an already-authenticated account and
// records the backing session row. Used by Login and by registration, which
// logs the new account in immediately.
func (uc *AuthUseCase) StartSession(ctx context.Context, account *domain.Account) (string, error) {
	token, expiresAt, err := uc.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return "", err
	}

	session := &domain.Session{
		ID:        uc.idGen.Generate(),
		AccountID: account.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}

// ResolveSession maps a bearer token to an account identity. The token must
// carry a valid signature and a live session row whose expiry has not
// passed.
func (uc *AuthUseCase) ResolveSession(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrUnauthenticated
	}

	accountID, err := uc.tokens.Verify(token)
	if err != nil {
		return "", err
	}

	session, err := uc.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return "", domain.ErrUnauthenticated
	}

	if session.Expired(time.Now().UTC()) {
		return "", domain.ErrSessionExpired
	}

	if session.AccountID != accountID {
		return "", domain.ErrUnauthenticated
	}

	return session.AccountID, nil
}

// Logout revokes the session behind a token. Revoking an unknown token is
// not an error.
func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	err := uc.sessionRepo.DeleteByToken(ctx, token)
	if err != nil && !errors.Is(err, domain.ErrUnauthenticated) {
		return err
	}

	return nil
}

// PurgeExpired removes session rows past their expiry.
func (uc *AuthUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	return uc.sessionRepo.DeleteExpired(ctx, time.Now().UTC())
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
