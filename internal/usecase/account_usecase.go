package usecase

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kodbank/kodbank/internal/domain"
)

// AccountUseCase handles account registration and lookup.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
	}
}

// RegisterInput represents input for registering an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an account with the fixed opening balance and records the
// grant as a CREDIT entry in the same transaction. Fails with ErrEmailTaken
// when the email is already registered.
func (uc *AccountUseCase) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:           uc.idGen.Generate(),
		Name:         input.Name,
		Email:        normalizeEmail(input.Email),
		PasswordHash: string(hash),
		Balance:      OpeningBalance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	opening := &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   account.ID,
		OperationID: uc.idGen.Generate(),
		Direction:   domain.DirectionCredit,
		Amount:      OpeningBalance,
		Description: domain.DescriptionOpening,
		CreatedAt:   now,
	}

	if err := uc.entryRepo.Create(ctx, tx, opening); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	account.PasswordHash = ""

	return account, nil
}

// GetAccount retrieves an account by ID, without the credential hash.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.PasswordHash = ""

	return account, nil
}
