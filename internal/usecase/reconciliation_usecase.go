package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationUseCase verifies ledger-wide consistency: because every
// balance change (including the opening grant) is recorded as an entry, the
// sum of all account balances must equal the sum of all signed entry
// amounts at all times.
type ReconciliationUseCase struct {
	ledgerRepo LedgerRepository
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{ledgerRepo: ledgerRepo}
}

// ConsistencyReport is the result of a ledger consistency check.
type ConsistencyReport struct {
	TotalBalance  decimal.Decimal
	TotalEntryNet decimal.Decimal
	Difference    decimal.Decimal
	Consistent    bool
	CheckedAt     time.Time
}

// CheckConsistency compares account balances against the entry log.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totalBalance, totalEntryNet, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	return &ConsistencyReport{
		TotalBalance:  totalBalance,
		TotalEntryNet: totalEntryNet,
		Difference:    totalBalance.Sub(totalEntryNet),
		Consistent:    totalBalance.Equal(totalEntryNet),
		CheckedAt:     time.Now().UTC(),
	}, nil
}
