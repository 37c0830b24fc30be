package payout

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/metrics"
	"github.com/shopspring/decimal"
)

type PayoutUsecase interface {
	CreatePayout(ctx context.Context, input *CreatePayoutInput) (*domain.Payout, error)

	Assign(ctx context.Context, payoutID, traderID string) (*domain.Payout, error)
	AcceptPayout(ctx context.Context, payoutID, traderID string) (*domain.Payout, error)
	Reassign(ctx context.Context, payoutID, traderID string) (*domain.Payout, error)
	ConfirmPayout(ctx context.Context, payoutID, traderID string, proofFiles []string) (*domain.Payout, error)
	ApprovePayout(ctx context.Context, payoutID, merchantID string) (*domain.Payout, error)
	CancelPayout(ctx context.Context, input *CancelPayoutInput) (*domain.Payout, error)
	CancelByMerchant(ctx context.Context, payoutID, merchantID, reason string) (*domain.Payout, error)
	OpenDispute(ctx context.Context, input *OpenDisputeInput) (*domain.Payout, *domain.Dispute, error)
	ExpirePayout(ctx context.Context, payoutID string) (*domain.Payout, error)

	RejectPayout(ctx context.Context, payoutID, adminID, reason string) (*domain.Payout, error)
	AdjustRate(ctx context.Context, input *AdjustRateInput) (*domain.Payout, error)
	ForceComplete(ctx context.Context, payoutID, adminID string) (*domain.Payout, error)
	ForceCancel(ctx context.Context, payoutID, adminID, reason string) (*domain.Payout, error)
	ResolveDispute(ctx context.Context, input *ResolveDisputeInput) (*domain.Dispute, error)

	GetPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error)
	GetPayouts(ctx context.Context, filter domain.PayoutFilter) ([]*domain.Payout, int64, error)
}

type Config struct {
	DefaultFeePercent        decimal.Decimal
	DefaultProcessingMinutes int
}

type DefaultPayoutUsecase struct {
	Ledger       domain.Ledger
	PayoutRepo   domain.PayoutRepository
	RateProvider domain.RateProvider
	Webhooks     domain.WebhookDispatcher
	Broadcaster  domain.Broadcaster
	Metrics      *metrics.PayoutMetrics
	Logger       *slog.Logger
	Config       Config

	now func() time.Time
}

func NewDefaultPayoutUsecase(
	ledger domain.Ledger,
	payoutRepo domain.PayoutRepository,
	rateProvider domain.RateProvider,
	webhooks domain.WebhookDispatcher,
	broadcaster domain.Broadcaster,
	payoutMetrics *metrics.PayoutMetrics,
	logger *slog.Logger,
	cfg Config,
) *DefaultPayoutUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultProcessingMinutes <= 0 {
		cfg.DefaultProcessingMinutes = domain.DefaultProcessingMinutes
	}
	return &DefaultPayoutUsecase{
		Ledger:       ledger,
		PayoutRepo:   payoutRepo,
		RateProvider: rateProvider,
		Webhooks:     webhooks,
		Broadcaster:  broadcaster,
		Metrics:      payoutMetrics,
		Logger:       logger.With("component", "payout"),
		Config:       cfg,
		now:          time.Now,
	}
}

// WithClock подменяет источник времени (тесты, симуляции)
func (uc *DefaultPayoutUsecase) WithClock(now func() time.Time) *DefaultPayoutUsecase {
	uc.now = now
	return uc
}

func (uc *DefaultPayoutUsecase) GetPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error) {
	return uc.PayoutRepo.GetPayoutByID(ctx, payoutID)
}

func (uc *DefaultPayoutUsecase) GetPayouts(ctx context.Context, filter domain.PayoutFilter) ([]*domain.Payout, int64, error) {
	return uc.PayoutRepo.GetPayouts(ctx, filter)
}
