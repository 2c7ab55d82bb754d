package model

import (
	"time"
)

// LedgerTransaction is a POS sales record owned by the ledger store.
// ReceiptNo is derived from the originating order's OrderNo; the unique
// index on it is what makes mirroring at-most-once under races.
type LedgerTransaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ReceiptNo     string `gorm:"size:80;uniqueIndex;not null" json:"receipt_no"`
	CustomerName  string `gorm:"size:128" json:"customer_name"`
	CustomerPhone string `gorm:"size:32" json:"customer_phone"`
	Total         int64  `gorm:"not null" json:"total"`
	PaymentMethod string `gorm:"size:32;not null" json:"payment_method"`
	Status        string `gorm:"size:16;not null" json:"status"`
	// Note carries provenance: the order_no this sale was mirrored from.
	Note string `gorm:"size:255" json:"note"`
}

func (LedgerTransaction) TableName() string { return "ledger_transactions" }

// LedgerItem mirrors one order item at the moment of mirroring.
type LedgerItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	LedgerID    uint   `gorm:"not null;index" json:"ledger_id"`
	ProductRef  string `gorm:"size:64;not null" json:"product_ref"`
	ProductName string `gorm:"size:128;not null" json:"product_name"`
	Quantity    int    `gorm:"not null" json:"quantity"`
	UnitPrice   int64  `gorm:"not null" json:"unit_price"`
	LineTotal   int64  `gorm:"not null" json:"line_total"`
}

func (LedgerItem) TableName() string { return "ledger_items" }

// FulfillmentAudit is the idempotent export-feed row written by the
// Kafka consumer, one per fulfillment event.
type FulfillmentAudit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	EventID    string    `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	OrderNo    string    `gorm:"size:64;index;not null" json:"order_no"`
	ReceiptNo  string    `gorm:"size:80;not null" json:"receipt_no"`
	Total      int64     `gorm:"not null" json:"total"`
	OccurredAt time.Time `gorm:"not null" json:"occurred_at"`
}

func (FulfillmentAudit) TableName() string { return "fulfillment_audits" }
