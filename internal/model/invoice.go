package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod enum constants
const (
	PaymentCash   = "ESPECE"
	PaymentCheque = "CHEQUE"
	PaymentEffet  = "EFFET"
)

// Invoice is an issued sales invoice. Client fields are a hard copy taken at
// issue time so later client edits never rewrite history.
type Invoice struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FormattedID       string          `gorm:"type:varchar(15);uniqueIndex;not null" json:"formatted_id"` // "0001 - 2025"
	CustomFormattedID string          `gorm:"type:varchar(50)" json:"custom_formatted_id"`
	SequenceNumber    int             `gorm:"not null;index:idx_invoice_year_seq" json:"sequence_number"`
	Year              int             `gorm:"not null;index:idx_invoice_year_seq" json:"year"`
	Date              time.Time       `gorm:"not null;index" json:"date"`
	ClientName        string          `gorm:"type:varchar(255);not null" json:"client_name"`
	ClientCity        string          `gorm:"type:varchar(120)" json:"client_city"`
	ClientICE         string          `gorm:"type:varchar(15);index" json:"client_ice"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"tax_rate"`
	TotalHT           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_ht"`
	TotalTVA          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_tva"`
	TotalTTC          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_ttc"`
	TotalInWords      string          `gorm:"type:text" json:"total_in_words"`
	PaymentMethod     string          `gorm:"type:varchar(10);not null" json:"payment_method"` // ESPECE, CHEQUE, EFFET

	ChequeNumber    string `gorm:"type:varchar(50)" json:"cheque_number,omitempty"`
	ChequeBank      string `gorm:"type:varchar(120)" json:"cheque_bank,omitempty"`
	ChequeCity      string `gorm:"type:varchar(120)" json:"cheque_city,omitempty"`
	ChequeReference string `gorm:"type:varchar(120)" json:"cheque_reference,omitempty"`

	EffetCity      string `gorm:"type:varchar(120)" json:"effet_city,omitempty"`
	EffetDueDate   string `gorm:"type:varchar(10)" json:"effet_due_date,omitempty"` // DD-MM-YYYY
	EffetBank      string `gorm:"type:varchar(120)" json:"effet_bank,omitempty"`
	EffetReference string `gorm:"type:varchar(120)" json:"effet_reference,omitempty"`

	Items     []InvoiceItem  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayID is the identifier printed on documents.
func (i Invoice) DisplayID() string {
	if i.CustomFormattedID != "" {
		return i.CustomFormattedID
	}
	return i.FormattedID
}

// InvoiceItem is a single line of an invoice. ProductID is nil for free-text lines.
type InvoiceItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	Position     int             `gorm:"not null" json:"position"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"quantity"`
	BuyingPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"buying_price"` // snapshot at sale time
	UnitPriceTTC decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price_ttc"`
	TotalTTC     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_ttc"`
}
