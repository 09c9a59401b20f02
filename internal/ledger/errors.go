package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors. Business outcomes are returned as these (or as typed
// errors that unwrap to them) and are matched with errors.Is.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStorage marks a persistence failure. Nothing was committed, so
	// the operation can be retried by the caller.
	ErrStorage = errors.New("storage failure")

	// ErrConflict marks a store-level conflict (deadlock, serialization
	// failure) that the engine retries with a fresh unit of work.
	ErrConflict = errors.New("storage conflict")
)

// Transfer sides reported by NotFoundError.
const (
	SideFrom = "from"
	SideTo   = "to"
)

// NotFoundError reports which side of a transfer referenced a missing account.
type NotFoundError struct {
	Side      string
	AccountID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s account %s not found", e.Side, e.AccountID)
}

func (e *NotFoundError) Unwrap() error { return ErrAccountNotFound }

// InsufficientFundsError is returned when the source balance is lower than the amount.
type InsufficientFundsError struct {
	AccountID uuid.UUID
	Balance   decimal.Decimal
	Amount    decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: balance %s, amount %s",
		e.AccountID, e.Balance.StringFixed(2), e.Amount.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// ValidationError describes malformed input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// storageErr wraps err with ErrStorage unless it already carries a
// business outcome.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isBusiness(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func isBusiness(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrInvalidCredentials)
}
