// Package error defines domain-specific errors for the reconciliation service.
package error

import "errors"

// Reconciliation domain errors.
var (
	// ErrInvoiceNotFound is returned when an invoice is not found.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrReceiptNotFound is returned when a receipt is not found.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrMatchNotFound is returned when a match is not found.
	ErrMatchNotFound = errors.New("match not found")

	// ErrNonPositiveAmount is returned when a confirm request carries a zero
	// or negative amount.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrAmountExceedsRemaining is returned when a confirm request exceeds
	// the remaining balance of the invoice or receipt.
	ErrAmountExceedsRemaining = errors.New("amount exceeds remaining balance")

	// ErrCustomerMismatch is returned when a manual match pairs an invoice
	// and receipt belonging to different customers.
	ErrCustomerMismatch = errors.New("invoice and receipt belong to different customers")

	// ErrInvoiceNotSettleable is returned when the invoice is matched or
	// cancelled and cannot receive further allocations.
	ErrInvoiceNotSettleable = errors.New("invoice cannot receive allocations")

	// ErrVersionConflict is returned by the ledger store when a conditional
	// write loses the optimistic version race.
	ErrVersionConflict = errors.New("record version conflict")

	// ErrMatchAlreadyReversed is returned when reversing a match that
	// already has a reversal row.
	ErrMatchAlreadyReversed = errors.New("match already reversed")

	// ErrReversalNotReversible is returned when the reversal target is
	// itself a reversal row.
	ErrReversalNotReversible = errors.New("cannot reverse a reversal")

	// ErrPassInProgress is returned when a reconciliation pass is already
	// holding the pass lock.
	ErrPassInProgress = errors.New("reconciliation pass already in progress")

	// ErrInvalidDateRange is returned when the pass range end precedes its start.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnknownStrategy is returned when a strategy subset names a strategy
	// the chain does not know.
	ErrUnknownStrategy = errors.New("unknown matching strategy")

	// ErrDiscrepancyNotFound is returned when a discrepancy is not found.
	ErrDiscrepancyNotFound = errors.New("discrepancy not found")

	// ErrDiscrepancyAlreadyResolved is returned when resolving a discrepancy twice.
	ErrDiscrepancyAlreadyResolved = errors.New("discrepancy already resolved")
)

// ReconciliationErrorCode defines error codes for reconciliation errors.
// Format: REC-XXYYYY where XX is category and YYYY is specific error.
type ReconciliationErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvoiceNotFound           ReconciliationErrorCode = "REC-010001"
	ErrCodeReceiptNotFound           ReconciliationErrorCode = "REC-010002"
	ErrCodeMatchNotFound             ReconciliationErrorCode = "REC-010003"
	ErrCodeNonPositiveAmount         ReconciliationErrorCode = "REC-010004"
	ErrCodeAmountExceedsRemaining    ReconciliationErrorCode = "REC-010005"
	ErrCodeCustomerMismatch          ReconciliationErrorCode = "REC-010006"
	ErrCodeInvoiceNotSettleable      ReconciliationErrorCode = "REC-010007"
	ErrCodeInvalidDateRange          ReconciliationErrorCode = "REC-010008"
	ErrCodeUnknownStrategy           ReconciliationErrorCode = "REC-010009"
	ErrCodeDiscrepancyNotFound       ReconciliationErrorCode = "REC-010010"
	ErrCodeDiscrepancyResolved       ReconciliationErrorCode = "REC-010011"
	ErrCodeMatchAlreadyReversed      ReconciliationErrorCode = "REC-010012"
	ErrCodeReversalNotReversible     ReconciliationErrorCode = "REC-010013"
	ErrCodeMissingResolutionNote     ReconciliationErrorCode = "REC-010014"

	// Concurrency errors (02XXXX)
	ErrCodeVersionConflict ReconciliationErrorCode = "REC-020001"
	ErrCodePassInProgress  ReconciliationErrorCode = "REC-020002"
)

// ReconciliationError represents a reconciliation error with code and message.
type ReconciliationError struct {
	Code    ReconciliationErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ReconciliationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// NewReconciliationError creates a new ReconciliationError.
func NewReconciliationError(code ReconciliationErrorCode, message string, err error) *ReconciliationError {
	return &ReconciliationError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
