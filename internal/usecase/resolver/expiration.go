package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// на проверке выплата ждёт мерчанта и по сроку не закрывается
var expirableStatuses = []domain.PayoutStatus{domain.PayoutCreated, domain.PayoutActive}

// ExpirePayouts закрывает просроченные CREATED и ACTIVE выплаты.
// Возвращает количество переведённых в EXPIRED.
func (r *Resolver) ExpirePayouts(ctx context.Context) (int, error) {
	expired, err := r.payouts.FindExpiredPayouts(ctx, r.now(), expirableStatuses, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find expired payouts: %w", err)
	}

	count := 0
	for _, p := range expired {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := r.ops.ExpirePayout(ctx, p.ID); err != nil {
			// выплату успели принять, отменить или продлить
			if errors.Is(err, domain.ErrInvalidState) {
				r.logger.Debug("payout no longer expirable", "payout_id", p.ID, "error", err)
				continue
			}
			r.logger.Error("failed to expire payout", "payout_id", p.ID, "error", err)
			continue
		}
		count++
	}
	if count > 0 {
		r.logger.Info("expired payouts swept", "count", count)
	}
	return count, nil
}
