package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item in the catalog
type Product struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Reference       string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"reference"` // e.g. "REF-001"
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Category        string          `gorm:"type:varchar(120)" json:"category"`
	BuyingPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"buying_price"`
	SellingPriceTTC decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"selling_price_ttc"` // default invoice price
	CurrentStock    int             `gorm:"type:int;default:0;not null" json:"current_stock"`
	MinStockLevel   int             `gorm:"type:int;default:0;not null" json:"min_stock_level"` // alert threshold
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// IsLowStock reports whether the product reached its alert threshold.
func (p Product) IsLowStock() bool {
	return p.CurrentStock <= p.MinStockLevel
}

// TransactionType Enum Simulation
const (
	TxTypeIn  = "IN"
	TxTypeOut = "OUT"
)

// InventoryTransaction records every stock change caused by an invoice or a manual adjustment
type InventoryTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	InvoiceID       *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"`                 // nil for manual adjustments
	TransactionType string     `gorm:"type:varchar(10);not null" json:"transaction_type"` // IN, OUT
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	Note            string     `gorm:"type:varchar(255)" json:"note"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}
