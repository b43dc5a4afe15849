package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID fills an empty primary key before insert. IDs are generated client-side
// so the same models work on SQLite and PostgreSQL.
func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	newID(&p.ID)
	return nil
}

func (c *Client) BeforeCreate(_ *gorm.DB) error {
	newID(&c.ID)
	return nil
}

func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	newID(&i.ID)
	return nil
}

func (i *InvoiceItem) BeforeCreate(_ *gorm.DB) error {
	newID(&i.ID)
	return nil
}

func (t *InventoryTransaction) BeforeCreate(_ *gorm.DB) error {
	newID(&t.ID)
	return nil
}

func (r *TaxRule) BeforeCreate(_ *gorm.DB) error {
	newID(&r.ID)
	return nil
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	newID(&a.ID)
	return nil
}
