package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Depot is a fulfillment location holding its own per-product stock variants.
type Depot struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	IsDefault bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Depot) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Product is a catalog entry; depot-level pricing and stock live on
// DepotProductVariant.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string          `gorm:"type:varchar(30)" json:"unit"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DepotProductVariant is the sellable unit of a product at one depot.
// ClosingQty is a denormalized cache of the stock ledger aggregate: every
// ledger write for this variant adjusts it by the same delta in the same
// transaction.
type DepotProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DepotID   uuid.UUID `gorm:"type:uuid;not null;index:idx_depot_product_variant" json:"depot_id"`
	Depot     *Depot    `gorm:"foreignKey:DepotID" json:"depot,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_depot_product_variant" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Name       string          `gorm:"type:varchar(255);not null" json:"name"` // e.g. "500g pack"
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	ClosingQty int             `gorm:"type:int;not null;default:0" json:"closing_qty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *DepotProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
