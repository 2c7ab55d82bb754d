package fulfillment

import (
	"context"
	"errors"
	"time"

	"back_office/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderStore wraps the order database. Read/write methods take the *gorm.DB
// of an open transaction so everything stays inside one boundary; the row
// lock taken by GetForUpdate is held until that transaction ends.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore { return &OrderStore{db: db} }

// DB returns the underlying handle for starting transactions and direct reads.
func (s *OrderStore) DB() *gorm.DB { return s.db }

// GetForUpdate loads an order by order_no under a row-level lock.
// sqlite has no FOR UPDATE syntax and serializes writers on its own, so the
// locking clause is only added on dialects that understand it.
func (s *OrderStore) GetForUpdate(ctx context.Context, tx *gorm.DB, orderNo string) (*model.Order, error) {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var o model.Order
	if err := q.First(&o, "order_no = ?", orderNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// UpdateStatus writes the new status pair and bumps updated_at.
func (s *OrderStore) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uint, status model.OrderStatus, payment model.PaymentStatus) error {
	return tx.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"order_status":   status,
			"payment_status": payment,
			"updated_at":     time.Now(),
		}).Error
}

// ListItems returns the order's line items in creation order.
func (s *OrderStore) ListItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := tx.WithContext(ctx).
		Order("id ASC").
		Find(&items, "order_id = ?", orderID).Error
	return items, err
}

// CreateWithItems inserts a new order and its items in one transaction,
// enforcing the money invariants. Used by the order-creation path.
func (s *OrderStore) CreateWithItems(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	if err := model.ValidateOrderTotals(o, items); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = o.ID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// GetWithItems is the plain read used by the order detail endpoint.
func (s *OrderStore) GetWithItems(ctx context.Context, orderNo string) (*model.Order, []model.OrderItem, error) {
	var o model.Order
	if err := s.db.WithContext(ctx).First(&o, "order_no = ?", orderNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}
	items, err := s.ListItems(ctx, s.db, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return &o, items, nil
}
