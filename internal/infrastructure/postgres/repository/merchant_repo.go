package repository

import (
	"context"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultMerchantRepository struct {
	db *gorm.DB
}

func NewDefaultMerchantRepository(db *gorm.DB) *DefaultMerchantRepository {
	return &DefaultMerchantRepository{db: db}
}

func (r *DefaultMerchantRepository) GetMerchantByID(ctx context.Context, merchantID string) (*domain.Merchant, error) {
	var model models.MerchantModel
	if err := r.db.WithContext(ctx).Where("id = ?", merchantID).First(&model).Error; err != nil {
		return nil, notFound(err, domain.ErrMerchantNotFound)
	}
	return mappers.ToDomainMerchant(&model), nil
}
