package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// SessionResponse represents a login or registration result.
type SessionResponse struct {
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

// BalanceResponse represents the current balance of an account.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID          string          `json:"id"`
	OperationID string          `json:"operation_id"`
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID,
		OperationID: e.OperationID,
		Direction:   string(e.Direction),
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// TransferResponse represents a completed transfer.
type TransferResponse struct {
	OperationID string          `json:"operation_id"`
	Debit       *EntryResponse  `json:"debit"`
	Credit      *EntryResponse  `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// OperationResponse represents a completed deposit or withdrawal.
type OperationResponse struct {
	Entry   *EntryResponse  `json:"entry"`
	Balance decimal.Decimal `json:"balance"`
}

// ConsistencyResponse represents a ledger reconciliation report.
type ConsistencyResponse struct {
	TotalBalance  decimal.Decimal `json:"total_balance"`
	TotalEntryNet decimal.Decimal `json:"total_entry_net"`
	Difference    decimal.Decimal `json:"difference"`
	Consistent    bool            `json:"consistent"`
	CheckedAt     time.Time       `json:"checked_at"`
}

// ConsistencyFromReport converts a reconciliation report to a response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		TotalBalance:  r.TotalBalance,
		TotalEntryNet: r.TotalEntryNet,
		Difference:    r.Difference,
		Consistent:    r.Consistent,
		CheckedAt:     r.CheckedAt,
	}
}

// ChatResponse represents an assistant reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// MessageResponse represents a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
