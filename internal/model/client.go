package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ICELength is the length of a Moroccan company identifier (Identifiant Commun de l'Entreprise).
const ICELength = 15

// Client represents a customer
type Client struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null;index" json:"name"`
	ICE       string         `gorm:"type:varchar(15);uniqueIndex;not null" json:"ice"`
	City      string         `gorm:"type:varchar(120);not null" json:"city"`
	Address   string         `gorm:"type:text" json:"address"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
