package repository

import (
	"context"
	"strings"

	"facture/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindByICE(ctx context.Context, ice string) (*model.Client, error)
	List(ctx context.Context) ([]model.Client, error)
	Search(ctx context.Context, query string, limit int) ([]model.Client, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Create(client).Error
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Save(client).Error
}

// Delete removes the row for good so the ICE can be registered again.
func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Unscoped().Where("id = ?", id).Delete(&model.Client{}).Error
}

func (r *clientRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) FindByICE(ctx context.Context, ice string) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).Where("ice = ?", ice).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	err := GetDB(ctx, r.db).Order("name asc").Find(&clients).Error
	return clients, err
}

// Search matches the name or the ICE, case-insensitively.
func (r *clientRepository) Search(ctx context.Context, query string, limit int) ([]model.Client, error) {
	var clients []model.Client

	db := GetDB(ctx, r.db)
	if query = strings.TrimSpace(query); query != "" {
		pattern := containsPattern(strings.ToLower(query))
		db = db.Where("LOWER(name) LIKE ? OR ice LIKE ?", pattern, containsPattern(query))
	}
	err := db.Order("name asc").Limit(limit).Find(&clients).Error
	return clients, err
}
