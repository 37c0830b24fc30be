package payout

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// ExpirePayout переводит просроченную выплату в EXPIRED.
// Срок перепроверяется под блокировкой: выплату могли принять или вернуть
// после того, как её выбрал воркер.
func (uc *DefaultPayoutUsecase) ExpirePayout(ctx context.Context, payoutID string) (*domain.Payout, error) {
	return uc.transition(ctx, "expire", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if p.Status != domain.PayoutCreated && p.Status != domain.PayoutActive {
			return "", domain.InvalidState("expire", p.Status)
		}
		if !uc.now().After(p.ExpireAt) {
			return "", fmt.Errorf("%w: payout expires at %s", domain.ErrInvalidState, p.ExpireAt)
		}

		if p.Status == domain.PayoutActive {
			if err := uc.release(ctx, tx, p); err != nil {
				return "", err
			}
		}
		p.Status = domain.PayoutExpired
		return domain.EventPayoutExpired, nil
	})
}
