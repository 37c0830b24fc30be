package repository

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLedger - транзакции поверх gorm. Строки выплат и трейдеров
// блокируются SELECT ... FOR UPDATE до коммита.
type DefaultLedger struct {
	db *gorm.DB
}

func NewDefaultLedger(db *gorm.DB) *DefaultLedger {
	return &DefaultLedger{db: db}
}

func (l *DefaultLedger) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (tx *gormTx) forUpdate(ctx context.Context) *gorm.DB {
	return tx.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (tx *gormTx) PayoutForUpdate(ctx context.Context, payoutID string) (*domain.Payout, error) {
	var model models.PayoutModel
	if err := tx.forUpdate(ctx).Where("id = ?", payoutID).First(&model).Error; err != nil {
		return nil, notFound(err, domain.ErrPayoutNotFound)
	}
	return mappers.ToDomainPayout(&model), nil
}

func (tx *gormTx) TraderForUpdate(ctx context.Context, traderID string) (*domain.Trader, error) {
	var model models.TraderModel
	if err := tx.forUpdate(ctx).Where("id = ?", traderID).First(&model).Error; err != nil {
		return nil, notFound(err, domain.ErrTraderNotFound)
	}
	return mappers.ToDomainTrader(&model), nil
}

func (tx *gormTx) CountActivePayouts(ctx context.Context, traderID string) (int64, error) {
	var count int64
	err := tx.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Where("trader_id = ? AND status IN ?", traderID, occupyingStatuses).
		Count(&count).Error
	return count, err
}

// MerchantTrader возвращает nil без ошибки, если связи нет
func (tx *gormTx) MerchantTrader(ctx context.Context, merchantID, traderID string) (*domain.MerchantTrader, error) {
	var model models.MerchantTraderModel
	err := tx.db.WithContext(ctx).
		Where("merchant_id = ? AND trader_id = ?", merchantID, traderID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainMerchantTrader(&model), nil
}

func (tx *gormTx) UpdatePayout(ctx context.Context, payout *domain.Payout, guard domain.PayoutGuard) error {
	model := mappers.ToGORMPayout(payout)
	model.UpdatedAt = time.Now()

	res := tx.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Where("id = ? AND status = ? AND trader_id = ?", payout.ID, string(guard.Status), guard.TraderID).
		Select("*").
		Omit("id", "numeric_id", "created_at").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	payout.UpdatedAt = model.UpdatedAt
	return nil
}

func (tx *gormTx) UpdateTraderBalances(ctx context.Context, trader *domain.Trader) error {
	res := tx.db.WithContext(ctx).Model(&models.TraderModel{}).
		Where("id = ?", trader.ID).
		Updates(map[string]any{
			"balance_settlement":       trader.BalanceSettlement,
			"frozen_settlement":        trader.FrozenSettlement,
			"balance_settlement_asset": trader.BalanceSettlementAsset,
			"profit_from_payouts":      trader.ProfitFromPayouts,
			"deposit":                  trader.Deposit,
			"updated_at":               time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTraderNotFound
	}
	return nil
}

func (tx *gormTx) CreateRateAudit(ctx context.Context, audit *domain.RateAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	return tx.db.WithContext(ctx).Create(mappers.ToGORMRateAudit(audit)).Error
}

func (tx *gormTx) DisputeForUpdate(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	var model models.DisputeModel
	if err := tx.forUpdate(ctx).Where("id = ?", disputeID).First(&model).Error; err != nil {
		return nil, notFound(err, domain.ErrDisputeNotFound)
	}
	return mappers.ToDomainDispute(&model), nil
}

func (tx *gormTx) CreateDispute(ctx context.Context, dispute *domain.Dispute) error {
	return tx.db.WithContext(ctx).Create(mappers.ToGORMDispute(dispute)).Error
}

func (tx *gormTx) UpdateDispute(ctx context.Context, dispute *domain.Dispute) error {
	res := tx.db.WithContext(ctx).Model(&models.DisputeModel{}).
		Where("id = ?", dispute.ID).
		Updates(map[string]any{
			"status":      string(dispute.Status),
			"resolution":  dispute.Resolution,
			"resolved_at": dispute.ResolvedAt,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDisputeNotFound
	}
	return nil
}

func (tx *gormTx) HasDisputeMessage(ctx context.Context, disputeID, senderID, contains string) (bool, error) {
	var count int64
	err := tx.db.WithContext(ctx).Model(&models.DisputeMessageModel{}).
		Where("dispute_id = ? AND sender_id = ? AND message ILIKE ?", disputeID, senderID, "%"+contains+"%").
		Count(&count).Error
	return count > 0, err
}

func (tx *gormTx) CreateDisputeMessage(ctx context.Context, msg *domain.DisputeMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	return tx.db.WithContext(ctx).Create(mappers.ToGORMDisputeMessage(msg)).Error
}

func (tx *gormTx) SetDealStatus(ctx context.Context, dealID string, status domain.DealStatus) error {
	res := tx.db.WithContext(ctx).Model(&models.DealModel{}).
		Where("id = ?", dealID).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDealNotFound
	}
	return nil
}
