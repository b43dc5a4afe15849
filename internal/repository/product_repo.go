package repository

import (
	"context"
	"strings"

	"facture/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByReference(ctx context.Context, reference string) (*model.Product, error)
	List(ctx context.Context, search string) ([]model.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Count(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context) (int64, error)
	CountInvoiceLines(ctx context.Context, id uuid.UUID) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByReference(ctx context.Context, reference string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("reference = ?", reference).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products ordered by name, optionally filtered on name, reference or category.
func (r *productRepository) List(ctx context.Context, search string) ([]model.Product, error) {
	var products []model.Product

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := containsPattern(strings.ToLower(search))
		db = db.Where("LOWER(name) LIKE ? OR LOWER(reference) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern, pattern)
	}

	if err := db.Order("name asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("current_stock", stock).Error
}

// FindByIDForUpdate row-locks the product on databases that support it.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product model.Product
	if err := db.Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Count(&n).Error
	return n, err
}

func (r *productRepository) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where("current_stock <= min_stock_level").Count(&n).Error
	return n, err
}

// CountInvoiceLines counts the lines of live invoices that reference the product.
func (r *productRepository) CountInvoiceLines(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.InvoiceItem{}).
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id AND invoices.deleted_at IS NULL").
		Where("invoice_items.product_id = ?", id).
		Count(&n).Error
	return n, err
}
