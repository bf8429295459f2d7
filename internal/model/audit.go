package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateOrder      = "CREATE_ORDER"
	ActionAddOrderItem     = "ADD_ORDER_ITEM"
	ActionUpdateItemQty    = "UPDATE_ITEM_QUANTITY"
	ActionToggleItemCancel = "TOGGLE_ITEM_CANCELLATION"
	ActionMarkOrderPaid    = "MARK_ORDER_PAID"
	ActionUpdateOrder      = "UPDATE_ORDER"
	ActionGenerateInvoice  = "GENERATE_INVOICE"
	ActionWalletCredit     = "WALLET_CREDIT"
	ActionWalletDebit      = "WALLET_DEBIT"
	ActionReceiveStock     = "RECEIVE_STOCK"
)

// AuditLog tracks Who, What, and When for order and wallet changes.
// Writes are best-effort: a failed audit insert is logged and swallowed,
// never escalated to the owning transaction.
type AuditLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     *uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for automated flows
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action      string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Description string     `gorm:"type:text" json:"description"`
	OldValue    string     `gorm:"type:jsonb" json:"old_value"`
	NewValue    string     `gorm:"type:jsonb" json:"new_value"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
