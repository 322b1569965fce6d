package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrEmailTaken        = errors.New("email already registered")

	// Ledger errors
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrStoreFailure      = errors.New("durable store failure")

	// Session errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("missing or invalid session")
	ErrSessionExpired     = errors.New("session has expired")
)
