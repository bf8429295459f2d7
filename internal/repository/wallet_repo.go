package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletRepository interface {
	Create(ctx context.Context, tx *model.WalletTransaction) error
	ListByMember(ctx context.Context, memberID uuid.UUID, page, limit int) ([]model.WalletTransaction, int64, error)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// Create appends one immutable wallet transaction.
func (r *walletRepository) Create(ctx context.Context, tx *model.WalletTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *walletRepository) ListByMember(ctx context.Context, memberID uuid.UUID, page, limit int) ([]model.WalletTransaction, int64, error) {
	var txs []model.WalletTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.WalletTransaction{}).Where("member_id = ?", memberID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
