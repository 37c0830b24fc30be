package repository

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Статусы, которые занимают слот трейдера
var occupyingStatuses = []string{
	string(domain.PayoutCreated),
	string(domain.PayoutActive),
	string(domain.PayoutChecking),
}

type DefaultPayoutRepository struct {
	db *gorm.DB
}

func NewDefaultPayoutRepository(db *gorm.DB) *DefaultPayoutRepository {
	return &DefaultPayoutRepository{db: db}
}

func (r *DefaultPayoutRepository) CreatePayout(ctx context.Context, payout *domain.Payout) error {
	if payout.ID == "" {
		payout.ID = uuid.New().String()
	}
	model := mappers.ToGORMPayout(payout)
	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return err
	}
	// numeric_id выдаёт последовательность
	if err := db.Model(&models.PayoutModel{}).
		Where("id = ?", payout.ID).
		Pluck("numeric_id", &payout.NumericID).Error; err != nil {
		return err
	}
	payout.CreatedAt = model.CreatedAt
	payout.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *DefaultPayoutRepository) GetPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error) {
	var model models.PayoutModel
	if err := r.db.WithContext(ctx).Where("id = ?", payoutID).First(&model).Error; err != nil {
		return nil, notFound(err, domain.ErrPayoutNotFound)
	}
	return mappers.ToDomainPayout(&model), nil
}

func (r *DefaultPayoutRepository) GetPayouts(ctx context.Context, filter domain.PayoutFilter) ([]*domain.Payout, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutModel{})
	if filter.MerchantID != "" {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.TraderID != "" {
		query = query.Where("trader_id = ?", filter.TraderID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", statusStrings(filter.Statuses))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		page := max(filter.Page, 1)
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var payoutModels []models.PayoutModel
	if err := query.Find(&payoutModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainPayouts(payoutModels), total, nil
}

func (r *DefaultPayoutRepository) FindUnassignedPayouts(ctx context.Context, now time.Time, limit int) ([]*domain.Payout, error) {
	return r.findOrdered(ctx, limit,
		"status = ? AND trader_id = '' AND expire_at > ?", string(domain.PayoutCreated), now)
}

func (r *DefaultPayoutRepository) FindExpiredPayouts(ctx context.Context, now time.Time, statuses []domain.PayoutStatus, limit int) ([]*domain.Payout, error) {
	return r.findOrdered(ctx, limit,
		"status IN ? AND expire_at < ?", statusStrings(statuses), now)
}

func (r *DefaultPayoutRepository) FindUnnotifiedPayouts(ctx context.Context, limit int) ([]*domain.Payout, error) {
	return r.findOrdered(ctx, limit,
		"trader_id <> '' AND notified_at IS NULL AND status IN ?",
		[]string{string(domain.PayoutCreated), string(domain.PayoutActive)})
}

func (r *DefaultPayoutRepository) MarkNotified(ctx context.Context, payoutID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Where("id = ?", payoutID).
		Update("notified_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPayoutNotFound
	}
	return nil
}

func (r *DefaultPayoutRepository) findOrdered(ctx context.Context, limit int, cond string, args ...any) ([]*domain.Payout, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Where(cond, args...).
		Order("created_at ASC, numeric_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var payoutModels []models.PayoutModel
	if err := query.Find(&payoutModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayouts(payoutModels), nil
}

func toDomainPayouts(payoutModels []models.PayoutModel) []*domain.Payout {
	payouts := make([]*domain.Payout, len(payoutModels))
	for i := range payoutModels {
		payouts[i] = mappers.ToDomainPayout(&payoutModels[i])
	}
	return payouts
}

func statusStrings(statuses []domain.PayoutStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
