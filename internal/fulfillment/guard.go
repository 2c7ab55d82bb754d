package fulfillment

import "strings"

// receiptPrefix turns an order_no into its ledger receipt_no. The mapping
// is fixed and reversible so "has this order been mirrored" is a single
// indexed lookup on ledger_transactions.receipt_no, with the unique index
// as the authoritative guard when two checks race.
const receiptPrefix = "POS-"

// DerivedReceiptNo returns the ledger receipt label for an order.
func DerivedReceiptNo(orderNo string) string {
	return receiptPrefix + orderNo
}

// OrderNoFromReceipt inverts DerivedReceiptNo. ok is false when the
// receipt was not derived from an online order.
func OrderNoFromReceipt(receiptNo string) (string, bool) {
	if !strings.HasPrefix(receiptNo, receiptPrefix) {
		return "", false
	}
	return strings.TrimPrefix(receiptNo, receiptPrefix), true
}
