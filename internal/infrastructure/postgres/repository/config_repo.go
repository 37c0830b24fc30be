package repository

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultConfigRepository - таблица system_configs, ключ/значение
type DefaultConfigRepository struct {
	db *gorm.DB
}

func NewDefaultConfigRepository(db *gorm.DB) *DefaultConfigRepository {
	return &DefaultConfigRepository{db: db}
}

func (r *DefaultConfigRepository) GetValues(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}
	var rows []models.SystemConfigModel
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (r *DefaultConfigRepository) Upsert(ctx context.Context, key, value string) error {
	row := models.SystemConfigModel{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
