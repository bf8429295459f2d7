package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module tags identifying the workflow that originated a ledger entry.
const (
	StockModuleCart         = "cart"
	StockModuleCartEdit     = "cart-edit"
	StockModuleDepotReceive = "depot-receive"
)

// StockLedgerEntry is an append-only stock movement record. Entries are
// never updated or deleted; on-hand quantity for a (product, variant,
// depot) tuple is always sum(received) - sum(issued) over its entries.
type StockLedgerEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_ledger_tuple" json:"product_id"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_ledger_tuple" json:"variant_id"`
	DepotID   uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_ledger_tuple" json:"depot_id"`

	TransactionDate time.Time `gorm:"not null;index" json:"transaction_date"`
	ReceivedQty     int       `gorm:"type:int;not null;default:0" json:"received_qty"`
	IssuedQty       int       `gorm:"type:int;not null;default:0" json:"issued_qty"`

	Module     string     `gorm:"type:varchar(30);not null" json:"module"`  // originating workflow
	ForeignKey *uuid.UUID `gorm:"type:uuid;index" json:"foreign_key"` // originating order id

	CreatedAt time.Time `json:"created_at"`
}

func (e *StockLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.TransactionDate.IsZero() {
		e.TransactionDate = time.Now()
	}
	return nil
}
