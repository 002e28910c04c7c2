package database

import (
	"fmt"
	"time"

	"masterplace_backend/internal/config"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

// ConnectGorm инициализирует GORM с DSN из конфигурации.
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

// AutoMigrate выполняет миграцию всех моделей.
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}

	// Расширение для uuid_generate_v4(), используемого в default первичных ключей.
	start := time.Now()
	err = db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
	logger.DBLog("exec", `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
	}

	start = time.Now()
	err = db.AutoMigrate(
		&models.User{},
		&models.ManagerProfile{},
		&models.PartnerProfile{},
		&models.Tariff{},
		&models.Order{},
		&models.OrderResponse{},
		&models.MediatorStep{},
		&models.RewardRecord{},
		&models.CashbackTransaction{},
		&models.Review{},
		&models.ReviewReply{},
		&models.AuditEntry{},
		&models.Notification{},
	)
	logger.DBLog("auto_migrate", "all models", time.Since(start), err)
	return err
}
