package dto

import (
	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/usecase"
)

// RegisterRequest represents a request to open an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AmountRequest represents a deposit or withdrawal request.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferRequest represents a peer transfer request.
type TransferRequest struct {
	ToEmail string          `json:"to_email"`
	Amount  decimal.Decimal `json:"amount"`
}

// ChatRequest represents an assistant chat request.
type ChatRequest struct {
	Message string `json:"message"`
}
