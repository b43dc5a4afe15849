package repository

import (
	"context"

	"facture/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryTxRepository interface {
	Create(ctx context.Context, tx *model.InventoryTransaction) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.InventoryTransaction, error)
}

type inventoryTxRepository struct {
	db *gorm.DB
}

func NewInventoryTxRepository(db *gorm.DB) InventoryTxRepository {
	return &inventoryTxRepository{db: db}
}

func (r *inventoryTxRepository) Create(ctx context.Context, tx *model.InventoryTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

// ListByProduct returns the most recent movements first.
func (r *inventoryTxRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.InventoryTransaction, error) {
	var txs []model.InventoryTransaction
	err := GetDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
