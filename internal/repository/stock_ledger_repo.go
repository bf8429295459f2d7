package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockLedgerRepository interface {
	Create(ctx context.Context, entry *model.StockLedgerEntry) error
	OnHand(ctx context.Context, productID, variantID, depotID uuid.UUID) (int, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockLedgerEntry, error)
}

type stockLedgerRepository struct {
	db *gorm.DB
}

func NewStockLedgerRepository(db *gorm.DB) StockLedgerRepository {
	return &stockLedgerRepository{db: db}
}

// Create appends one immutable entry. There are deliberately no update or
// delete methods on this repository.
func (r *stockLedgerRepository) Create(ctx context.Context, entry *model.StockLedgerEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// OnHand derives the current on-hand quantity for a (product, variant,
// depot) tuple from the ledger: sum(received) - sum(issued).
func (r *stockLedgerRepository) OnHand(ctx context.Context, productID, variantID, depotID uuid.UUID) (int, error) {
	var result struct {
		OnHand int
	}
	err := GetDB(ctx, r.db).Model(&model.StockLedgerEntry{}).
		Select("COALESCE(SUM(received_qty - issued_qty), 0) as on_hand").
		Where("product_id = ? AND variant_id = ? AND depot_id = ?", productID, variantID, depotID).
		Scan(&result).Error
	if err != nil {
		return 0, err
	}
	return result.OnHand, nil
}

func (r *stockLedgerRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockLedgerEntry, error) {
	var entries []model.StockLedgerEntry
	if err := GetDB(ctx, r.db).
		Where("foreign_key = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
