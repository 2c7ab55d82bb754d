package fulfillment

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound: the order_no does not reference an existing order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStatus: the requested order status is outside the enum.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidPaymentStatus: the requested payment status is outside the enum.
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	// ErrFulfillmentPropagationFailed: the ledger write failed after the
	// fulfillment predicate was satisfied; the order update was rolled back
	// and the caller may safely retry.
	ErrFulfillmentPropagationFailed = errors.New("fulfillment propagation failed")
)

// isUniqueViolation reports whether err is a uniqueness-constraint rejection.
// The derived receipt_no race resolves through this: the loser of a
// concurrent insert treats it as already-synchronized, never as a failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique") ||
		strings.Contains(s, "Duplicate entry")
}
