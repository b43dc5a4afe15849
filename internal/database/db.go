package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"facture/internal/config"
	"facture/internal/logger"
	"facture/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection opens the configured database and migrates the schema.
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		// foreign keys are off by default in SQLite
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=foreign_keys(1)")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := Open(dialector, log)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open wraps gorm.Open with the zap-backed GORM logger.
func Open(dialector gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.NewGormLogger(log, gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate auto-migrates every persisted model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Client{},
		&model.Product{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InventoryTransaction{},
		&model.TaxRule{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SeedDefaultVAT creates an open-ended VAT rule when none exists yet.
func SeedDefaultVAT(db *gorm.DB, rate string) error {
	var count int64
	if err := db.Model(&model.TaxRule{}).Where("tax_type = ?", model.TaxTypeVAT).Count(&count).Error; err != nil {
		return fmt.Errorf("count tax rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	r, err := decimal.NewFromString(rate)
	if err != nil {
		return fmt.Errorf("invalid default vat rate %q: %w", rate, err)
	}
	if r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("default vat rate must be in [0, 1)")
	}

	return db.Create(&model.TaxRule{
		TaxType:       model.TaxTypeVAT,
		Rate:          r,
		EffectiveFrom: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:   "Default VAT rate",
	}).Error
}
