package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
	ErrVersionConflict         = errors.New("optimistic lock conflict")
	ErrCurrencyMismatch        = errors.New("currency mismatch")
	ErrInsufficientPoints      = errors.New("insufficient loyalty points")
	ErrDuplicate               = errors.New("duplicate")
	ErrForbidden               = errors.New("forbidden")
	ErrReconcileInProgress     = errors.New("reconciliation already running")
	ErrAlreadyConfirmed        = errors.New("entry already confirmed")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// ErrImbalance also matches ErrValidation.
var ErrImbalance = fmt.Errorf("%w: debits do not equal credits", ErrValidation)

// Invalid wraps ErrValidation with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
