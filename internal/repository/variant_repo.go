package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VariantRepository interface {
	Create(ctx context.Context, variant *model.DepotProductVariant) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DepotProductVariant, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DepotProductVariant, error)
	UpdateClosingQty(ctx context.Context, id uuid.UUID, closingQty int) error
	ListByDepot(ctx context.Context, depotID uuid.UUID, page, limit int) ([]model.DepotProductVariant, int64, error)
}

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) Create(ctx context.Context, variant *model.DepotProductVariant) error {
	return GetDB(ctx, r.db).Create(variant).Error
}

func (r *variantRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DepotProductVariant, error) {
	var variant model.DepotProductVariant
	if err := GetDB(ctx, r.db).Preload("Product").First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindByIDForUpdate locks the variant row so the cached closing quantity is
// adjusted under the same lock that guards the paired ledger write.
func (r *variantRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DepotProductVariant, error) {
	var variant model.DepotProductVariant
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepository) UpdateClosingQty(ctx context.Context, id uuid.UUID, closingQty int) error {
	return GetDB(ctx, r.db).Model(&model.DepotProductVariant{}).Where("id = ?", id).
		Update("closing_qty", closingQty).Error
}

func (r *variantRepository) ListByDepot(ctx context.Context, depotID uuid.UUID, page, limit int) ([]model.DepotProductVariant, int64, error) {
	var variants []model.DepotProductVariant
	var total int64

	db := GetDB(ctx, r.db).Model(&model.DepotProductVariant{}).Where("depot_id = ?", depotID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Order("name ASC").
		Offset(offset).Limit(limit).Find(&variants).Error; err != nil {
		return nil, 0, err
	}

	return variants, total, nil
}
