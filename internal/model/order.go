package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Order is a catalog order owned by the order store.
// Money fields are minor currency units; Subtotal + DeliveryFee = Total.
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderNo       string `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	CustomerName  string `gorm:"size:128;not null" json:"customer_name"`
	CustomerPhone string `gorm:"size:32" json:"customer_phone"`
	CustomerEmail string `gorm:"size:128" json:"customer_email"`
	AddressLine   string `gorm:"size:255" json:"address_line"`
	City          string `gorm:"size:64" json:"city"`

	Subtotal    int64 `gorm:"not null" json:"subtotal"`
	DeliveryFee int64 `gorm:"not null;default:0" json:"delivery_fee"`
	Total       int64 `gorm:"not null" json:"total"`

	OrderStatus   OrderStatus   `gorm:"size:16;not null;default:pending;index" json:"order_status"`
	PaymentStatus PaymentStatus `gorm:"size:16;not null;default:pending" json:"payment_status"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is owned by its order and immutable after creation.
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID     uint   `gorm:"not null;index" json:"order_id"`
	ProductRef  string `gorm:"size:64;not null" json:"product_ref"`
	ProductName string `gorm:"size:128;not null" json:"product_name"`
	Quantity    int    `gorm:"not null" json:"quantity"`
	UnitPrice   int64  `gorm:"not null" json:"unit_price"`
	LineTotal   int64  `gorm:"not null" json:"line_total"`
}

func (OrderItem) TableName() string { return "order_items" }

// ValidateOrderTotals checks the money invariants at creation time:
// each line total is quantity × unit price, lines sum to the subtotal,
// and subtotal + delivery fee equals the total.
func ValidateOrderTotals(o *Order, items []OrderItem) error {
	if o.Subtotal < 0 || o.DeliveryFee < 0 || o.Total < 0 {
		return fmt.Errorf("negative amount on order %s", o.OrderNo)
	}
	var sum int64
	for i := range items {
		it := &items[i]
		if it.Quantity <= 0 {
			return fmt.Errorf("item %s: quantity must be > 0", it.ProductRef)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("item %s: unit price must be >= 0", it.ProductRef)
		}
		if it.LineTotal != int64(it.Quantity)*it.UnitPrice {
			return fmt.Errorf("item %s: line total mismatch", it.ProductRef)
		}
		sum += it.LineTotal
	}
	if sum != o.Subtotal {
		return fmt.Errorf("order %s: line totals %d do not sum to subtotal %d", o.OrderNo, sum, o.Subtotal)
	}
	if o.Subtotal+o.DeliveryFee != o.Total {
		return fmt.Errorf("order %s: subtotal %d + delivery fee %d != total %d",
			o.OrderNo, o.Subtotal, o.DeliveryFee, o.Total)
	}
	return nil
}
