package common

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange    = errors.New("booking start must be before end")
	ErrInvalidSubject  = errors.New("unknown booking subject type")
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrDuplicateIntent = errors.New("an active payment already exists for this booking")
	ErrForbidden       = errors.New("acting party has no rights over this booking")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrHoldNotFound is a consistency failure: the local payment record
	// references a hold the authority no longer knows about. Operators
	// reconcile these manually.
	ErrHoldNotFound = errors.New("fund hold not found at payment authority")
)

// AuthorityError wraps a failed or timed-out payment authority call. No
// booking or payment state was advanced, so the caller may retry.
type AuthorityError struct {
	Op  string
	Err error
}

func (e *AuthorityError) Error() string {
	return fmt.Sprintf("payment authority %s failed: %s", e.Op, e.Err.Error())
}

func (e *AuthorityError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error came from the external authority
// rather than local validation.
func IsRetryable(err error) bool {
	var ae *AuthorityError
	return errors.As(err, &ae)
}
