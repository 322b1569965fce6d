package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/domain"
)

// LedgerUseCase is the transfer engine. It owns the only write path to
// account balances and the entry log: every mutating operation runs inside a
// single transaction that locks the affected account rows, updates balances
// and appends entries together or not at all.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
	retrier     Retrier
}

// NewLedgerUseCase creates a new LedgerUseCase. retrier may be nil to
// disable transient-failure retries.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	retrier Retrier,
) *LedgerUseCase {
	if retrier == nil {
		retrier = noopRetrier{}
	}

	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
		retrier:     retrier,
	}
}

// Deposit credits the account and appends one CREDIT entry.
func (uc *LedgerUseCase) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Entry, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *domain.Entry

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		entry, err = uc.appendEntry(ctx, tx, account, domain.DirectionCredit, amount, domain.DescriptionDeposit, uc.idGen.Generate(), now)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Withdraw debits the account after a solvency check and appends one DEBIT
// entry. Fails with ErrInsufficientFunds when amount exceeds the balance.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Entry, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *domain.Entry

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}

		if err := account.ValidateDebit(amount); err != nil {
			return err
		}

		now := time.Now().UTC()

		entry, err = uc.appendEntry(ctx, tx, account, domain.DirectionDebit, amount, domain.DescriptionWithdrawal, uc.idGen.Generate(), now)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// TransferResult reports the two entries produced by a committed transfer.
type TransferResult struct {
	OperationID string
	DebitEntry  *domain.Entry
	CreditEntry *domain.Entry
}

// Transfer moves amount from an account to the account registered under
// toEmail, appending one DEBIT entry on the sender and one CREDIT entry on
// the recipient in the same transaction.
//
// Validation order is fixed: invalid amount, then recipient resolution, then
// (inside the row locks) sender solvency, then self-transfer.
func (uc *LedgerUseCase) Transfer(ctx context.Context, fromAccountID, toEmail string, amount decimal.Decimal) (*TransferResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	recipient, err := uc.accountRepo.GetByEmail(ctx, toEmail)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, err
	}

	// Lock in ascending ID order so two transfers between the same pair in
	// opposite directions cannot deadlock.
	ids := []string{fromAccountID}
	if recipient.ID != fromAccountID {
		ids = append(ids, recipient.ID)
	}
	sort.Strings(ids)

	var result *TransferResult

	err = uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
		if err != nil {
			return err
		}

		var sender, receiver *domain.Account
		for _, a := range accounts {
			if a.ID == fromAccountID {
				sender = a
			}
			if a.ID == recipient.ID {
				receiver = a
			}
		}

		if sender == nil {
			return domain.ErrAccountNotFound
		}
		if receiver == nil {
			return domain.ErrRecipientNotFound
		}

		if err := sender.ValidateDebit(amount); err != nil {
			return err
		}

		if receiver.ID == sender.ID {
			return domain.ErrSelfTransfer
		}

		operationID := uc.idGen.Generate()
		now := time.Now().UTC()

		debit, err := uc.appendEntry(ctx, tx, sender, domain.DirectionDebit, amount,
			fmt.Sprintf("Transfer to %s", receiver.Name), operationID, now)
		if err != nil {
			return err
		}

		credit, err := uc.appendEntry(ctx, tx, receiver, domain.DirectionCredit, amount,
			fmt.Sprintf("Transfer from %s", sender.Name), operationID, now)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &TransferResult{
			OperationID: operationID,
			DebitEntry:  debit,
			CreditEntry: credit,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetBalance returns the current balance of an account.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// ListTransactions returns the account's entries, newest first.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, accountID string, limit int) ([]*domain.Entry, error) {
	limit = domain.ValidateLimit(limit)

	return uc.entryRepo.ListByAccount(ctx, accountID, limit)
}

// appendEntry writes one entry and the matching balance update inside tx,
// mutating the in-memory account to the new balance on success.
func (uc *LedgerUseCase) appendEntry(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	direction domain.Direction,
	amount decimal.Decimal,
	description, operationID string,
	now time.Time,
) (*domain.Entry, error) {
	newBalance := account.ApplyCredit(amount)
	if direction == domain.DirectionDebit {
		newBalance = account.ApplyDebit(amount)
	}

	entry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   account.ID,
		OperationID: operationID,
		Direction:   direction,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	account.Balance = newBalance

	return entry, nil
}

type noopRetrier struct{}

func (noopRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}
