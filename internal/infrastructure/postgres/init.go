package postgres

import (
	"fmt"
	"log"

	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("payout_db.dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}
	return db, nil
}

func MustInitDB(dsn string) *gorm.DB {
	db, err := InitDB(dsn)
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return db
}

// AutoMigrate - схема без SQL-миграций, для локального окружения
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MerchantModel{},
		&models.TraderModel{},
		&models.MerchantTraderModel{},
		&models.PayoutModel{},
		&models.RateAuditModel{},
		&models.DealModel{},
		&models.DisputeModel{},
		&models.DisputeMessageModel{},
		&models.SystemConfigModel{},
	)
}
