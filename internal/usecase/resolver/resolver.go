package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/payout"
)

// PayoutOperations - переходы, которые резолвер делает через движок учёта
type PayoutOperations interface {
	ExpirePayout(ctx context.Context, payoutID string) (*domain.Payout, error)
	ResolveDispute(ctx context.Context, input *payout.ResolveDisputeInput) (*domain.Dispute, error)
}

type Config struct {
	BatchSize int
	// Location - часовой пояс, в котором считаются дневная и ночная смены
	Location *time.Location
	Shifts   ShiftConfig
}

type Resolver struct {
	payouts     domain.PayoutRepository
	disputes    domain.DisputeRepository
	configStore domain.ConfigStore
	ops         PayoutOperations
	metrics     *metrics.PayoutMetrics
	logger      *slog.Logger
	cfg         Config
	now         func() time.Time
}

func NewResolver(
	payouts domain.PayoutRepository,
	disputes domain.DisputeRepository,
	configStore domain.ConfigStore,
	ops PayoutOperations,
	payoutMetrics *metrics.PayoutMetrics,
	logger *slog.Logger,
	cfg Config,
) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Shifts == (ShiftConfig{}) {
		cfg.Shifts = DefaultShiftConfig()
	}
	return &Resolver{
		payouts:     payouts,
		disputes:    disputes,
		configStore: configStore,
		ops:         ops,
		metrics:     payoutMetrics,
		logger:      logger.With("component", "resolver"),
		cfg:         cfg,
		now:         time.Now,
	}
}

func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}
