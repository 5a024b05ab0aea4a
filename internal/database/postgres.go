package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"kidsbook_backend/internal/config"
	"kidsbook_backend/internal/models"
)

var gormDB *gorm.DB

// ConnectGorm инициализирует GORM с DSN из конфигурации
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to ensure uuid-ossp extension: %w", err)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Child{},
		&models.Partner{},
		&models.Activity{},
		&models.Session{},
		&models.Booking{},
		&models.Plan{},
		&models.Subscription{},
		&models.UsagePeriod{},
	)
}
