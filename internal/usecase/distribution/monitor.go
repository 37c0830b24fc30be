package distribution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/metrics"
)

// Monitor повторно уведомляет трейдеров о назначенных выплатах,
// по которым уведомление не дошло. Сам ничего не назначает.
type Monitor struct {
	payouts  domain.PayoutRepository
	traders  domain.TraderRepository
	notifier domain.NotificationSink
	metrics  *metrics.PayoutMetrics
	logger   *slog.Logger
	batch    int
	now      func() time.Time
}

func NewMonitor(
	payouts domain.PayoutRepository,
	traders domain.TraderRepository,
	notifier domain.NotificationSink,
	payoutMetrics *metrics.PayoutMetrics,
	logger *slog.Logger,
	batch int,
) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if batch <= 0 {
		batch = 100
	}
	return &Monitor{
		payouts:  payouts,
		traders:  traders,
		notifier: notifier,
		metrics:  payoutMetrics,
		logger:   logger.With("component", "payout_monitor"),
		batch:    batch,
		now:      time.Now,
	}
}

func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// RenotifyPending возвращает количество успешно отправленных уведомлений
func (m *Monitor) RenotifyPending(ctx context.Context) (int, error) {
	pending, err := m.payouts.FindUnnotifiedPayouts(ctx, m.batch)
	if err != nil {
		return 0, fmt.Errorf("find unnotified payouts: %w", err)
	}

	sent := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		trader, err := m.traders.GetTraderByID(ctx, p.TraderID)
		if err != nil {
			m.logger.Warn("trader of assigned payout not found", "payout_id", p.ID, "trader_id", p.TraderID, "error", err)
			continue
		}
		if notifyTrader(ctx, m.notifier, m.payouts, m.metrics, m.logger, m.now(), trader, p) {
			sent++
		}
	}
	if sent > 0 {
		m.logger.Info("trader notifications resent", "count", sent)
	}
	return sent, nil
}
