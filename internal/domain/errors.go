package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLimitExceeded       = errors.New("simultaneous payouts limit exceeded")
	ErrPayoutExpired       = errors.New("payout expired")
	ErrValidation          = errors.New("validation failed")
)

var (
	ErrPayoutNotFound   = fmt.Errorf("payout %w", ErrNotFound)
	ErrTraderNotFound   = fmt.Errorf("trader %w", ErrNotFound)
	ErrDisputeNotFound  = fmt.Errorf("dispute %w", ErrNotFound)
	ErrMerchantNotFound = fmt.Errorf("merchant %w", ErrNotFound)
	ErrDealNotFound     = fmt.Errorf("deal %w", ErrNotFound)

	// ErrStaleState - условное обновление не затронуло ни одной строки:
	// кто-то успел изменить выплату между чтением и записью
	ErrStaleState      = fmt.Errorf("%w: payout changed concurrently", ErrInvalidState)
	ErrAlreadyAssigned = fmt.Errorf("%w: payout is assigned to another trader", ErrUnauthorized)
)

type InsufficientBalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s", e.Required, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InvalidState оборачивает ErrInvalidState текущим статусом выплаты
func InvalidState(op string, status PayoutStatus) error {
	return fmt.Errorf("%w: cannot %s payout in status %s", ErrInvalidState, op, status)
}
