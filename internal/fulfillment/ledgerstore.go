package fulfillment

import (
	"context"
	"errors"

	"back_office/internal/model"

	"gorm.io/gorm"
)

// LedgerStore is the insert-only surface the synchronizer needs from the
// POS ledger. It is an interface so tests can inject commit failures.
type LedgerStore interface {
	// ReceiptExists is the fast-path idempotency check by derived receipt_no.
	ReceiptExists(ctx context.Context, receiptNo string) (bool, error)
	// CreateTransaction inserts the ledger row and its items in a single
	// ledger-database transaction. Implementations must surface uniqueness
	// violations on receipt_no unchanged.
	CreateTransaction(ctx context.Context, t *model.LedgerTransaction, items []model.LedgerItem) error
	// GetByReceipt reads a ledger transaction and its items.
	GetByReceipt(ctx context.Context, receiptNo string) (*model.LedgerTransaction, []model.LedgerItem, error)
}

// ErrReceiptNotFound: no ledger transaction carries the receipt_no.
var ErrReceiptNotFound = errors.New("receipt not found")

// GormLedgerStore backs LedgerStore with the ledger database handle.
type GormLedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *GormLedgerStore { return &GormLedgerStore{db: db} }

func (s *GormLedgerStore) DB() *gorm.DB { return s.db }

func (s *GormLedgerStore) ReceiptExists(ctx context.Context, receiptNo string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.LedgerTransaction{}).
		Where("receipt_no = ?", receiptNo).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *GormLedgerStore) CreateTransaction(ctx context.Context, t *model.LedgerTransaction, items []model.LedgerItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].LedgerID = t.ID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (s *GormLedgerStore) GetByReceipt(ctx context.Context, receiptNo string) (*model.LedgerTransaction, []model.LedgerItem, error) {
	var t model.LedgerTransaction
	if err := s.db.WithContext(ctx).First(&t, "receipt_no = ?", receiptNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrReceiptNotFound
		}
		return nil, nil, err
	}
	var items []model.LedgerItem
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items, "ledger_id = ?", t.ID).Error; err != nil {
		return nil, nil, err
	}
	return &t, items, nil
}
