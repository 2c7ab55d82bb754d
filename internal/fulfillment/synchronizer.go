package fulfillment

import (
	"context"
	"fmt"
	"log"
	"time"

	"back_office/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// paymentMethodOnline labels mirrored sales in the POS ledger.
const paymentMethodOnline = "online"

// Event describes one completed mirroring, published after both
// stores have committed.
type Event struct {
	EventID    string    `json:"event_id"`
	OrderNo    string    `json:"order_no"`
	ReceiptNo  string    `json:"receipt_no"`
	Total      int64     `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier receives fulfillment events. Delivery is best effort; a failed
// publish is logged and the call still succeeds.
type Notifier interface {
	FulfillmentMirrored(ctx context.Context, ev Event) error
}

// Recon tracks orders that are between the ledger commit and the order
// commit. A marker that is never cleared flags the one inconsistency window
// this design has (ledger written, order status not yet committed) for the
// reconciliation endpoint.
type Recon interface {
	MarkPending(ctx context.Context, orderNo string) error
	ClearPending(ctx context.Context, orderNo string) error
}

// Result reports what a Synchronize call did.
type Result struct {
	OrderNo       string
	OrderStatus   model.OrderStatus
	PaymentStatus model.PaymentStatus
	// LedgerCreated is true when this call inserted the ledger transaction.
	LedgerCreated bool
	// AlreadySynchronized is true when the ledger transaction existed before
	// this call. Treated as success, never surfaced as an error.
	AlreadySynchronized bool
	// ReceiptNo is set whenever the order is mirrored (by this call or earlier).
	ReceiptNo string
}

// Synchronizer keeps the catalog order store and the POS ledger coherent.
// The two stores are independently transacted; there is no two-phase commit.
// The ledger transaction always commits before the order transaction, so a
// crash between the two leaves at worst a mirrored sale with a stale order
// status, which the next retry repairs (the guard makes the retry skip the
// insert). Ledger rows are never updated or deleted here: an order that is
// later cancelled after mirroring leaves its receipt standing, with the
// provenance note pointing an operator at it.
type Synchronizer struct {
	orders   *OrderStore
	ledger   LedgerStore
	notifier Notifier
	recon    Recon
}

func NewSynchronizer(orders *OrderStore, ledger LedgerStore, notifier Notifier, recon Recon) *Synchronizer {
	return &Synchronizer{orders: orders, ledger: ledger, notifier: notifier, recon: recon}
}

// Synchronize moves an order to newStatus (and optionally newPayment), and
// when the new state is completed+paid, mirrors the order into the ledger
// exactly once. Safe to retry with the same arguments.
func (s *Synchronizer) Synchronize(ctx context.Context, orderNo string, newStatus model.OrderStatus, newPayment *model.PaymentStatus) (Result, error) {
	if _, err := model.ParseOrderStatus(string(newStatus)); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if newPayment != nil {
		if _, err := model.ParsePaymentStatus(string(*newPayment)); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidPaymentStatus, err)
		}
	}

	var res Result
	var orderTotal int64
	err := s.orders.DB().Transaction(func(tx *gorm.DB) error {
		o, err := s.orders.GetForUpdate(ctx, tx, orderNo)
		if err != nil {
			return err
		}

		// The predicate is evaluated on the new values, so re-affirming an
		// already completed+paid order takes the same path as the first
		// transition and stays idempotent.
		effective := o.PaymentStatus
		if newPayment != nil {
			effective = *newPayment
		}

		if err := s.orders.UpdateStatus(ctx, tx, o.ID, newStatus, effective); err != nil {
			return err
		}

		res = Result{
			OrderNo:       o.OrderNo,
			OrderStatus:   newStatus,
			PaymentStatus: effective,
		}
		orderTotal = o.Total

		if !(newStatus == model.OrderCompleted && effective == model.PaymentPaid) {
			return nil // below threshold, no ledger side effect
		}

		receiptNo := DerivedReceiptNo(o.OrderNo)
		res.ReceiptNo = receiptNo

		exists, err := s.ledger.ReceiptExists(ctx, receiptNo)
		if err != nil {
			return fmt.Errorf("%w: receipt lookup: %v", ErrFulfillmentPropagationFailed, err)
		}
		if exists {
			res.AlreadySynchronized = true
			return nil
		}

		items, err := s.orders.ListItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}

		if s.recon != nil {
			if err := s.recon.MarkPending(ctx, o.OrderNo); err != nil {
				log.Printf("sync %s: mark pending: %v", o.OrderNo, err)
			}
		}

		// The ledger commit happens here, inside the order transaction, so
		// the row lock covers both writes and "ledger before order" holds.
		draft, ledgerItems := buildLedgerDraft(o, items, receiptNo)
		if err := s.ledger.CreateTransaction(ctx, draft, ledgerItems); err != nil {
			if isUniqueViolation(err) {
				// Lost the insert race to a concurrent call: already mirrored.
				res.AlreadySynchronized = true
				return nil
			}
			return fmt.Errorf("%w: %v", ErrFulfillmentPropagationFailed, err)
		}
		res.LedgerCreated = true
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.LedgerCreated || res.AlreadySynchronized {
		if s.recon != nil {
			if err := s.recon.ClearPending(ctx, res.OrderNo); err != nil {
				log.Printf("sync %s: clear pending: %v", res.OrderNo, err)
			}
		}
	}
	if res.LedgerCreated && s.notifier != nil {
		ev := Event{
			EventID:    uuid.NewString(),
			OrderNo:    res.OrderNo,
			ReceiptNo:  res.ReceiptNo,
			Total:      orderTotal,
			OccurredAt: time.Now(),
		}
		if err := s.notifier.FulfillmentMirrored(ctx, ev); err != nil {
			log.Printf("sync %s: publish fulfillment event: %v", res.OrderNo, err)
		}
	}
	return res, nil
}

func buildLedgerDraft(o *model.Order, items []model.OrderItem, receiptNo string) (*model.LedgerTransaction, []model.LedgerItem) {
	t := &model.LedgerTransaction{
		ReceiptNo:     receiptNo,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Total:         o.Total,
		PaymentMethod: paymentMethodOnline,
		Status:        string(model.OrderCompleted),
		Note:          "online order " + o.OrderNo,
	}
	out := make([]model.LedgerItem, len(items))
	for i, it := range items {
		out[i] = model.LedgerItem{
			ProductRef:  it.ProductRef,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return t, out
}
