package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName     = errors.New("invalid account name")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrPasswordTooWeak = errors.New("password does not meet requirements")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxNameLength      = 255
	MinPasswordLength  = 8
	MaxPasswordLength  = 128
	MaxOperationAmount = "1000000000" // 1 billion per operation
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateName validates an account holder name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateEmail validates email format.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasUpper || !hasLower || !hasNumber {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// ValidateAmount validates a deposit/withdrawal/transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxOperationAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxOperationAmount)
	}

	return nil
}

// ValidateLimit clamps a history page size to sane bounds.
func ValidateLimit(limit int) int {
	const (
		defaultLimit = 50
		maxLimit     = 500
	)

	if limit <= 0 {
		return defaultLimit
	}

	if limit > maxLimit {
		return maxLimit
	}

	return limit
}
