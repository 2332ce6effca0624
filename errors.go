package ledger

import (
	"errors"
	"fmt"

	"github.com/coopcore/ledger/guard"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("ledger: not found")
	ErrAlreadyExists = errors.New("ledger: already exists")
	ErrInvalidInput  = errors.New("ledger: invalid input")

	// Party errors
	ErrPartyNotFound      = errors.New("ledger: party not found")
	ErrCreditLimitReached = guard.ErrCreditLimitReached

	// Posting errors
	ErrObligationNotFound  = errors.New("ledger: obligation not found")
	ErrObligationClosed    = errors.New("ledger: obligation already paid or reversed")
	ErrObligationAllocated = errors.New("ledger: obligation has allocations and cannot be reversed")
	ErrPaymentNotFound     = errors.New("ledger: payment not found")
	ErrPaymentExceedsOpen  = guard.ErrPaymentExceedsOpen
	ErrAllocationMismatch  = errors.New("ledger: allocations do not cover the payment amount")

	// Loan errors
	ErrLoanNotFound       = errors.New("ledger: loan not found")
	ErrLoanNotPending     = errors.New("ledger: loan is not pending")
	ErrLoanNotApproved    = errors.New("ledger: loan is not approved")
	ErrLoanNotServicable  = errors.New("ledger: loan is not disbursed or active")
	ErrLoanTransition     = errors.New("ledger: illegal loan status transition")
	ErrPaymentExceedsLoan = guard.ErrPaymentExceedsLoan
	ErrPenaltyNotFound    = errors.New("ledger: penalty not found")
	ErrPenaltyPaid        = errors.New("ledger: penalty already paid")
	ErrPenaltyWaived      = errors.New("ledger: waiver exceeds collectible penalty")

	// Savings errors
	ErrSavingsNotFound     = errors.New("ledger: savings account not found")
	ErrSavingsClosed       = errors.New("ledger: savings account is closed")
	ErrBelowMinimumBalance = guard.ErrBelowMinimumBalance
	ErrDepositNotFound     = errors.New("ledger: time deposit not found")
	ErrDepositClosed       = errors.New("ledger: time deposit already settled")
	ErrDepositNotMatured   = errors.New("ledger: time deposit has not matured")

	// Share errors
	ErrShareNotFound  = errors.New("ledger: share account not found")
	ErrShareOverpaid  = guard.ErrShareOverpaid
	ErrShareFullyPaid = errors.New("ledger: subscription already fully paid")

	// Wallet errors
	ErrWalletNotFound           = errors.New("ledger: wallet not found")
	ErrWalletCategoryNotAllowed = guard.ErrWalletCategoryNotAllowed
	ErrWalletInsufficient       = guard.ErrWalletInsufficient

	// Store errors
	ErrStoreNotReady     = errors.New("ledger: store not ready")
	ErrStoreClosed       = errors.New("ledger: store is closed")
	ErrTransactionFailed = errors.New("ledger: transaction failed")
	ErrMigrationFailed   = errors.New("ledger: migration failed")
	ErrLockTimeout       = errors.New("ledger: timed out waiting for party lock")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "ledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("ledger: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error names a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPartyNotFound) ||
		errors.Is(err, ErrObligationNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrPenaltyNotFound) ||
		errors.Is(err, ErrSavingsNotFound) ||
		errors.Is(err, ErrDepositNotFound) ||
		errors.Is(err, ErrShareNotFound) ||
		errors.Is(err, ErrWalletNotFound)
}

// IsRejection returns true if the error is a business-rule refusal of
// otherwise well-formed input: the caller's request was understood and
// turned down, so retrying unchanged will fail again.
func IsRejection(err error) bool {
	var verr ValidationError
	if errors.As(err, &verr) {
		return true
	}
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, guard.ErrNotPositive) ||
		errors.Is(err, ErrCreditLimitReached) ||
		errors.Is(err, ErrPaymentExceedsLoan) ||
		errors.Is(err, ErrObligationClosed) ||
		errors.Is(err, ErrObligationAllocated) ||
		errors.Is(err, ErrPaymentExceedsOpen) ||
		errors.Is(err, ErrAllocationMismatch) ||
		errors.Is(err, ErrLoanNotPending) ||
		errors.Is(err, ErrLoanNotApproved) ||
		errors.Is(err, ErrLoanNotServicable) ||
		errors.Is(err, ErrLoanTransition) ||
		errors.Is(err, ErrPenaltyPaid) ||
		errors.Is(err, ErrPenaltyWaived) ||
		errors.Is(err, ErrSavingsClosed) ||
		errors.Is(err, ErrBelowMinimumBalance) ||
		errors.Is(err, ErrDepositClosed) ||
		errors.Is(err, ErrDepositNotMatured) ||
		errors.Is(err, ErrShareOverpaid) ||
		errors.Is(err, ErrShareFullyPaid) ||
		errors.Is(err, ErrWalletCategoryNotAllowed) ||
		errors.Is(err, ErrWalletInsufficient)
}

// IsRetryable returns true if the error is temporary and the operation
// can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrLockTimeout)
}
