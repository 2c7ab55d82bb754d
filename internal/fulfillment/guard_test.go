package fulfillment_test

import (
	"context"
	"testing"

	"back_office/internal/fulfillment"
	"back_office/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivedReceiptNo(t *testing.T) {
	assert.Equal(t, "POS-ORD-1001", fulfillment.DerivedReceiptNo("ORD-1001"))
	// Deterministic: same input, same label, every time.
	assert.Equal(t, fulfillment.DerivedReceiptNo("ORD-42"), fulfillment.DerivedReceiptNo("ORD-42"))
}

func TestOrderNoFromReceiptRoundTrip(t *testing.T) {
	orderNo, ok := fulfillment.OrderNoFromReceipt(fulfillment.DerivedReceiptNo("ORD-7"))
	require.True(t, ok)
	assert.Equal(t, "ORD-7", orderNo)

	_, ok = fulfillment.OrderNoFromReceipt("WALKIN-0001")
	assert.False(t, ok, "walk-in receipts are not derived from orders")
}

func TestReceiptExists(t *testing.T) {
	_, ledgerDB := openTestDBs(t)
	ledger := fulfillment.NewLedgerStore(ledgerDB)
	ctx := context.Background()

	exists, err := ledger.ReceiptExists(ctx, "POS-ORD-9")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, ledger.CreateTransaction(ctx, &model.LedgerTransaction{
		ReceiptNo:     "POS-ORD-9",
		Total:         500,
		PaymentMethod: "online",
		Status:        "completed",
	}, nil))

	exists, err = ledger.ReceiptExists(ctx, "POS-ORD-9")
	require.NoError(t, err)
	assert.True(t, exists)
}

type recordingRecon struct {
	marked  []string
	cleared []string
}

func (r *recordingRecon) MarkPending(_ context.Context, orderNo string) error {
	r.marked = append(r.marked, orderNo)
	return nil
}

func (r *recordingRecon) ClearPending(_ context.Context, orderNo string) error {
	r.cleared = append(r.cleared, orderNo)
	return nil
}

func TestReconMarkersAroundMirroring(t *testing.T) {
	orderDB, ledgerDB := openTestDBs(t)
	seedOrder(t, orderDB)

	recon := &recordingRecon{}
	orders := fulfillment.NewOrderStore(orderDB)
	ledger := fulfillment.NewLedgerStore(ledgerDB)
	syncer := fulfillment.NewSynchronizer(orders, ledger, nil, recon)

	_, err := syncer.Synchronize(context.Background(), "ORD-1001", model.OrderCompleted, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"ORD-1001"}, recon.marked)
	assert.Equal(t, []string{"ORD-1001"}, recon.cleared)
}

func TestReconMarkerLeftOnLedgerFailure(t *testing.T) {
	orderDB, ledgerDB := openTestDBs(t)
	seedOrder(t, orderDB)

	recon := &recordingRecon{}
	orders := fulfillment.NewOrderStore(orderDB)
	ledger := &flakyLedger{LedgerStore: fulfillment.NewLedgerStore(ledgerDB), failures: 1}
	syncer := fulfillment.NewSynchronizer(orders, ledger, nil, recon)

	_, err := syncer.Synchronize(context.Background(), "ORD-1001", model.OrderCompleted, nil)
	require.ErrorIs(t, err, fulfillment.ErrFulfillmentPropagationFailed)

	// The marker stays behind for the reconciliation scan.
	assert.Equal(t, []string{"ORD-1001"}, recon.marked)
	assert.Empty(t, recon.cleared)
}
