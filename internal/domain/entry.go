package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether an entry increases or decreases the balance.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Descriptions written by the ledger engine.
const (
	DescriptionDeposit    = "Cash Deposit"
	DescriptionWithdrawal = "Cash Withdrawal"
	DescriptionOpening    = "Opening Balance"
)

// Entry is one immutable, timestamped record of a single-directional balance
// movement on one account. Entries are append-only and never updated.
type Entry struct {
	ID          string
	AccountID   string
	OperationID string
	Direction   Direction
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// Signed returns the amount with debits negated, so that summing signed
// amounts over all entries yields the account's balance.
func (e *Entry) Signed() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
