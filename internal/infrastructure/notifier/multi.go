package notifier

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// MultiSink - несколько каналов уведомления трейдера.
// Уведомление считается доставленным, если сработал хотя бы один канал.
type MultiSink []domain.NotificationSink

func (m MultiSink) NotifyTraderNewPayout(ctx context.Context, trader *domain.Trader, payout *domain.Payout) error {
	var errs []error
	delivered := false
	for _, sink := range m {
		if err := sink.NotifyTraderNewPayout(ctx, trader, payout); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if delivered {
		return nil
	}
	if len(errs) == 0 {
		return errors.New("no notification channels configured")
	}
	return errors.Join(errs...)
}

// MultiBroadcaster рассылает во все каналы и возвращает первую ошибку
type MultiBroadcaster []domain.Broadcaster

func (m MultiBroadcaster) BroadcastUpdate(ctx context.Context, payoutID string, event domain.PayoutEvent, payout *domain.Payout, merchantID, traderID string) error {
	var errs []error
	for _, b := range m {
		if err := b.BroadcastUpdate(ctx, payoutID, event, payout, merchantID, traderID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
