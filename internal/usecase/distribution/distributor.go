package distribution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/payout"
)

const (
	KeyDistributionEnabled   = "payoutDistributionEnabled"
	KeyRedistributionMetrics = "payout_redistribution_metrics"

	modeReserve = "reserve"
	modeClaim   = "claim"
)

var ErrCycleInProgress = errors.New("distribution cycle already in progress")

// Assigner - часть движка учёта, через которую проходит назначение
type Assigner interface {
	Assign(ctx context.Context, payoutID, traderID string) (*domain.Payout, error)
	Reassign(ctx context.Context, payoutID, traderID string) (*domain.Payout, error)
}

type Config struct {
	BatchSize int
	// ReserveOnAssign - замораживать средства сразу при назначении (Reassign),
	// иначе только закреплять выплату (Assign) и ждать принятия трейдером
	ReserveOnAssign bool
}

// CycleStats - итог одного прохода, сохраняется в system_config
type CycleStats struct {
	StartedAt   time.Time          `json:"started_at"`
	DurationMs  int64              `json:"duration_ms"`
	Disabled    bool               `json:"disabled,omitempty"`
	Mode        string             `json:"mode"`
	Candidates  int                `json:"candidates"`
	Processed   int                `json:"processed"`
	Assigned    int                `json:"assigned"`
	Deferred    int                `json:"deferred"`
	Failed      int                `json:"failed"`
	Notified    int                `json:"notified"`
	SkipReasons map[SkipReason]int `json:"skip_reasons,omitempty"`
}

type Distributor struct {
	payouts     domain.PayoutRepository
	traders     domain.TraderRepository
	configStore domain.ConfigStore
	assigner    Assigner
	notifier    domain.NotificationSink
	metrics     *metrics.PayoutMetrics
	logger      *slog.Logger
	cfg         Config

	running atomic.Bool
	now     func() time.Time
}

func NewDistributor(
	payouts domain.PayoutRepository,
	traders domain.TraderRepository,
	configStore domain.ConfigStore,
	assigner Assigner,
	notifier domain.NotificationSink,
	payoutMetrics *metrics.PayoutMetrics,
	logger *slog.Logger,
	cfg Config,
) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Distributor{
		payouts:     payouts,
		traders:     traders,
		configStore: configStore,
		assigner:    assigner,
		notifier:    notifier,
		metrics:     payoutMetrics,
		logger:      logger.With("component", "distributor"),
		cfg:         cfg,
		now:         time.Now,
	}
}

func (d *Distributor) WithClock(now func() time.Time) *Distributor {
	d.now = now
	return d
}

func (d *Distributor) mode() string {
	if d.cfg.ReserveOnAssign {
		return modeReserve
	}
	return modeClaim
}

// RunCycle раздаёт свободные выплаты по кругу между подходящими трейдерами.
// Параллельный запуск не допускается.
func (d *Distributor) RunCycle(ctx context.Context) (*CycleStats, error) {
	if !d.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer d.running.Store(false)

	started := d.now()
	stats := &CycleStats{
		StartedAt:   started,
		Mode:        d.mode(),
		SkipReasons: make(map[SkipReason]int),
	}

	enabled, err := d.enabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		stats.Disabled = true
		d.logger.Debug("payout distribution disabled")
		return stats, nil
	}

	if err := d.distribute(ctx, started, stats); err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	stats.DurationMs = elapsed.Milliseconds()
	if d.metrics != nil {
		d.metrics.RecordCycleDuration(elapsed.Seconds())
	}
	d.saveSnapshot(ctx, stats)

	if stats.Processed > 0 {
		d.logger.Info("distribution cycle finished",
			"processed", stats.Processed,
			"assigned", stats.Assigned,
			"deferred", stats.Deferred,
			"failed", stats.Failed,
			"duration_ms", stats.DurationMs,
		)
	}
	return stats, nil
}

func (d *Distributor) enabled(ctx context.Context) (bool, error) {
	if d.configStore == nil {
		return true, nil
	}
	values, err := d.configStore.GetValues(ctx, KeyDistributionEnabled)
	if err != nil {
		return false, fmt.Errorf("read distribution toggle: %w", err)
	}
	raw, ok := values[KeyDistributionEnabled]
	if !ok {
		return true, nil
	}
	on, err := strconv.ParseBool(raw)
	if err != nil {
		d.logger.Warn("invalid distribution toggle value, keeping enabled", "value", raw)
		return true, nil
	}
	return on, nil
}

func (d *Distributor) distribute(ctx context.Context, now time.Time, stats *CycleStats) error {
	batch, err := d.payouts.FindUnassignedPayouts(ctx, now, d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("find unassigned payouts: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}

	pool, err := d.traders.FindCandidates(ctx)
	if err != nil {
		return fmt.Errorf("find candidates: %w", err)
	}
	stats.Candidates = len(pool)

	merchantIDs := make([]string, 0, len(batch))
	for _, p := range batch {
		if !slices.Contains(merchantIDs, p.MerchantID) {
			merchantIDs = append(merchantIDs, p.MerchantID)
		}
	}
	relList, err := d.traders.FindMerchantTraders(ctx, merchantIDs)
	if err != nil {
		return fmt.Errorf("find merchant traders: %w", err)
	}
	rels := NewRelations(relList)

	queue := slices.Clone(pool)
	for _, p := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Processed++
		queue = d.distributeOne(ctx, p, queue, pool, rels, stats)
	}
	return nil
}

// distributeOne пробует отдать выплату первому подходящему трейдеру из очереди.
// Трейдер, которому не хватило баланса или лимита, выбывает из очереди до конца цикла,
// но остаётся в общем пуле.
func (d *Distributor) distributeOne(
	ctx context.Context,
	p *domain.Payout,
	queue, pool []*domain.Candidate,
	rels Relations,
	stats *CycleStats,
) []*domain.Candidate {
	log := d.logger.With("payout_id", p.ID, "merchant_id", p.MerchantID)

	res := FilterEligible(p, queue, rels)
	if len(res.Eligible) == 0 {
		res = FilterEligible(p, pool, rels)
	}
	if len(res.Eligible) == 0 {
		stats.Deferred++
		for traderID, reason := range res.Skipped {
			stats.SkipReasons[reason]++
			if d.metrics != nil {
				d.metrics.RecordSkipped(string(reason))
			}
			log.Debug("trader skipped", "trader_id", traderID, "reason", reason)
		}
		log.Info("no eligible traders, payout deferred", "candidates", len(pool))
		return queue
	}

	for _, c := range res.Eligible {
		assigned, err := d.assign(ctx, p.ID, c.Trader.ID)
		if err != nil {
			if payout.IsCapacityError(err) {
				log.Debug("trader has no capacity", "trader_id", c.Trader.ID, "error", err)
				queue = removeCandidate(queue, c)
				continue
			}
			stats.Failed++
			log.Warn("failed to assign payout", "trader_id", c.Trader.ID, "error", err)
			return queue
		}

		stats.Assigned++
		c.ActivePayouts++
		if d.cfg.ReserveOnAssign {
			c.Trader.BalanceSettlement = c.Trader.BalanceSettlement.Sub(assigned.FrozenAmount)
		}
		queue = append(removeCandidate(queue, c), c)
		if d.metrics != nil {
			d.metrics.RecordAssigned(d.mode())
		}
		log.Info("payout assigned", "trader_id", c.Trader.ID, "mode", d.mode())

		if d.notify(ctx, c.Trader, assigned) {
			stats.Notified++
		}
		return queue
	}

	stats.Deferred++
	log.Info("all eligible traders ran out of capacity, payout deferred")
	return queue
}

func (d *Distributor) assign(ctx context.Context, payoutID, traderID string) (*domain.Payout, error) {
	if d.cfg.ReserveOnAssign {
		return d.assigner.Reassign(ctx, payoutID, traderID)
	}
	return d.assigner.Assign(ctx, payoutID, traderID)
}

// notify - best-effort, выплата уже назначена.
// Неудачные попытки подберёт монитор по пустому NotifiedAt.
func (d *Distributor) notify(ctx context.Context, trader *domain.Trader, p *domain.Payout) bool {
	return notifyTrader(ctx, d.notifier, d.payouts, d.metrics, d.logger, d.now(), trader, p)
}

func (d *Distributor) saveSnapshot(ctx context.Context, stats *CycleStats) {
	if d.configStore == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		d.logger.Error("failed to marshal distribution metrics", "error", err)
		return
	}
	if err := d.configStore.Upsert(ctx, KeyRedistributionMetrics, string(raw)); err != nil {
		d.logger.Error("failed to save distribution metrics", "error", err)
	}
}

func removeCandidate(queue []*domain.Candidate, c *domain.Candidate) []*domain.Candidate {
	return slices.DeleteFunc(queue, func(q *domain.Candidate) bool { return q == c })
}

func notifyTrader(
	ctx context.Context,
	sink domain.NotificationSink,
	payouts domain.PayoutRepository,
	m *metrics.PayoutMetrics,
	logger *slog.Logger,
	now time.Time,
	trader *domain.Trader,
	p *domain.Payout,
) bool {
	if sink == nil {
		return false
	}
	if err := sink.NotifyTraderNewPayout(ctx, trader, p); err != nil {
		logger.Warn("failed to notify trader", "payout_id", p.ID, "trader_id", trader.ID, "error", err)
		if m != nil {
			m.RecordNotificationFailed("trader")
		}
		return false
	}
	if err := payouts.MarkNotified(ctx, p.ID, now); err != nil {
		logger.Error("failed to mark payout notified", "payout_id", p.ID, "error", err)
		return false
	}
	return true
}
