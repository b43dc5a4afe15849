package repository

import (
	"context"

	"facture/internal/model"

	"gorm.io/gorm"
)

// StatisticsRepository loads the raw rows the dashboard aggregates.
// Sums are computed in Go so decimals stay exact on every driver.
type StatisticsRepository interface {
	InvoicesOfYear(ctx context.Context, year int) ([]model.Invoice, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) InvoicesOfYear(ctx context.Context, year int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Preload("Items").
		Where("year = ?", year).
		Order("date asc, sequence_number asc").
		Find(&invoices).Error
	return invoices, err
}
