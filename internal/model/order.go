package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus constants
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusPaid      = "PAID"
	PaymentStatusCancelled = "CANCELLED"
)

// CanTransitionPayment reports whether an order may move between payment states.
// Allowed: PENDING -> PAID, PENDING -> CANCELLED, PAID -> CANCELLED.
// Nothing leaves CANCELLED.
func CanTransitionPayment(from, to string) bool {
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusPaid || to == PaymentStatusCancelled
	case PaymentStatusPaid:
		return to == PaymentStatusCancelled
	default:
		return false
	}
}

// Order is the settlement aggregate root. Customer fields are a snapshot
// copied at checkout, not a live reference to the member record.
type Order struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_no"`

	MemberID *uuid.UUID `gorm:"type:uuid;index" json:"member_id"` // nullable for guest orders
	Member   *Member    `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	DepotID  *uuid.UUID `gorm:"type:uuid;index" json:"depot_id"`
	Depot    *Depot     `gorm:"foreignKey:DepotID" json:"depot,omitempty"`

	// Customer snapshot
	CustomerName  string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone string `gorm:"type:varchar(20);not null" json:"customer_phone"`
	CustomerEmail string `gorm:"type:varchar(255)" json:"customer_email"`
	AddressLine   string `gorm:"type:text" json:"address_line"`
	City          string `gorm:"type:varchar(100)" json:"city"`
	Pincode       string `gorm:"type:varchar(12)" json:"pincode"`

	// Monetary fields. Invariants:
	//   total_amount  = round(subtotal + delivery_fee, 2)
	//   payable_amount = max(0, total_amount - wallet_amount)
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"delivery_fee"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	WalletAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"wallet_amount"`
	PayableAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"payable_amount"`

	PaymentStatus string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"payment_status"`
	PaymentMode   string     `gorm:"type:varchar(30)" json:"payment_mode"`
	PaymentRefNo  string     `gorm:"type:varchar(100)" json:"payment_ref_no"`
	PaymentDate   *time.Time `json:"payment_date"`

	// Invoice binding, nullable until the binder runs
	InvoiceNo   *string `gorm:"type:varchar(30)" json:"invoice_no"`
	InvoicePath *string `gorm:"type:varchar(500)" json:"invoice_path"`

	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one line of an order. A line may reference a catalog product,
// a depot variant, or neither when entered manually. Items are never deleted,
// only cancelled; cancelled lines stay out of the total recomputation.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	VariantID *uuid.UUID `gorm:"type:uuid;index" json:"variant_id"`

	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	VariantName string          `gorm:"type:varchar(255)" json:"variant_name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity    int             `gorm:"type:int;not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	IsCancelled bool            `gorm:"not null;default:false" json:"is_cancelled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
