package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered user holding a monetary balance. The email address
// doubles as the external contact address other accounts transfer to.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Balance      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateDebit checks that debiting amount keeps the balance non-negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if amount.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
