package repository

import (
	"context"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultTraderRepository struct {
	db *gorm.DB
}

func NewDefaultTraderRepository(db *gorm.DB) *DefaultTraderRepository {
	return &DefaultTraderRepository{db: db}
}

func (r *DefaultTraderRepository) GetTraderByID(ctx context.Context, traderID string) (*domain.Trader, error) {
	var model models.TraderModel
	if err := r.db.WithContext(ctx).Where("id = ?", traderID).First(&model).Error; err != nil {
		return nil, notFound(err, domain.ErrTraderNotFound)
	}
	return mappers.ToDomainTrader(&model), nil
}

type candidateRow struct {
	models.TraderModel `gorm:"embedded"`
	ActivePayouts      int64
}

func (r *DefaultTraderRepository) FindCandidates(ctx context.Context) ([]*domain.Candidate, error) {
	active := r.db.Model(&models.PayoutModel{}).
		Select("trader_id, COUNT(*) AS cnt").
		Where("trader_id <> '' AND status IN ?", occupyingStatuses).
		Group("trader_id")

	var rows []candidateRow
	err := r.db.WithContext(ctx).
		Table("traders").
		Select("traders.*, COALESCE(active.cnt, 0) AS active_payouts").
		Joins("LEFT JOIN (?) AS active ON active.trader_id = traders.id::text", active).
		Where("traders.banned = ? AND traders.traffic_enabled = ?", false, true).
		Order("traders.created_at ASC, traders.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.Candidate, len(rows))
	for i := range rows {
		candidates[i] = &domain.Candidate{
			Trader:        mappers.ToDomainTrader(&rows[i].TraderModel),
			ActivePayouts: rows[i].ActivePayouts,
		}
	}
	return candidates, nil
}

func (r *DefaultTraderRepository) FindMerchantTraders(ctx context.Context, merchantIDs []string) ([]*domain.MerchantTrader, error) {
	if len(merchantIDs) == 0 {
		return nil, nil
	}
	var relModels []models.MerchantTraderModel
	if err := r.db.WithContext(ctx).
		Where("merchant_id IN ?", merchantIDs).
		Find(&relModels).Error; err != nil {
		return nil, err
	}
	rels := make([]*domain.MerchantTrader, len(relModels))
	for i := range relModels {
		rels[i] = mappers.ToDomainMerchantTrader(&relModels[i])
	}
	return rels, nil
}
