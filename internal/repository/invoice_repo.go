package repository

import (
	"context"

	"facture/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	UpdateHeader(ctx context.Context, invoice *model.Invoice) error
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListByYear(ctx context.Context, year int) ([]model.Invoice, error)
	Years(ctx context.Context) ([]int, error)
	MaxSequence(ctx context.Context, year int) (int, error)
	CountByClientICE(ctx context.Context, ice string) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("invoice_items.position asc")
}

// Create inserts the invoice together with its items.
func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

// UpdateHeader saves invoice columns only; items are handled by ReplaceItems.
func (r *invoiceRepository) UpdateHeader(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit("Items").Save(invoice).Error
}

func (r *invoiceRepository) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	return db.Create(&items).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items", orderedItems).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListByYear returns the invoices of a year, newest sequence first.
func (r *invoiceRepository) ListByYear(ctx context.Context, year int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).
		Preload("Items", orderedItems).
		Where("year = ?", year).
		Order("sequence_number desc").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Distinct("year").
		Order("year desc").
		Pluck("year", &years).Error
	return years, err
}

// MaxSequence includes soft-deleted invoices so numbers are never reused.
func (r *invoiceRepository) MaxSequence(ctx context.Context, year int) (int, error) {
	var max *int
	err := GetDB(ctx, r.db).Unscoped().Model(&model.Invoice{}).
		Where("year = ?", year).
		Select("MAX(sequence_number)").
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}

func (r *invoiceRepository) CountByClientICE(ctx context.Context, ice string) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).Where("client_ice = ?", ice).Count(&n).Error
	return n, err
}
