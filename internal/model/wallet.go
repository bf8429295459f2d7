package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletTransaction type constants
const (
	WalletTxCredit = "CREDIT"
	WalletTxDebit  = "DEBIT"
)

// WalletTransaction status constants
const (
	WalletTxCompleted = "COMPLETED"
	WalletTxFailed    = "FAILED"
)

// WalletTransaction is an append-only balance movement on a member wallet.
// A DEBIT is written only when the member's balance at the owning
// transaction is >= amount; every write is paired with exactly one
// balance delta on the Member row in the same transaction.
type WalletTransaction struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID uuid.UUID `gorm:"type:uuid;not null;index" json:"member_id"`
	Member   *Member   `gorm:"foreignKey:MemberID" json:"-"`

	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // always > 0
	Type   string          `gorm:"type:varchar(10);not null" json:"type"`     // CREDIT, DEBIT
	Status string          `gorm:"type:varchar(20);not null;default:'COMPLETED'" json:"status"`

	PaymentMethod   string `gorm:"type:varchar(30)" json:"payment_method"`
	ReferenceNumber string `gorm:"type:varchar(100);index" json:"reference_number"`
	Notes           string `gorm:"type:text" json:"notes"`

	ProcessedByID *uuid.UUID `gorm:"type:uuid" json:"processed_by_id"` // admin who triggered a manual adjustment
	CreatedAt     time.Time  `json:"created_at"`
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
