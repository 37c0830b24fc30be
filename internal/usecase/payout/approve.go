package payout

import (
	"context"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// ApprovePayout - мерчант подтверждает получение, заморозка списывается,
// трейдеру начисляются USDT и прибыль.
func (uc *DefaultPayoutUsecase) ApprovePayout(ctx context.Context, payoutID, merchantID string) (*domain.Payout, error) {
	return uc.transition(ctx, "approve", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if err := requireMerchant(p, merchantID); err != nil {
			return "", err
		}
		return uc.complete(ctx, tx, p)
	})
}

// ForceComplete - то же одобрение, но от администратора
func (uc *DefaultPayoutUsecase) ForceComplete(ctx context.Context, payoutID, adminID string) (*domain.Payout, error) {
	uc.Logger.Info("admin force complete", "payout_id", payoutID, "admin_id", adminID)
	return uc.transition(ctx, "force_complete", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		return uc.complete(ctx, tx, p)
	})
}

func (uc *DefaultPayoutUsecase) complete(ctx context.Context, tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
	if p.Status != domain.PayoutChecking {
		return "", domain.InvalidState("complete", p.Status)
	}
	if err := uc.settle(ctx, tx, p, uc.now()); err != nil {
		return "", err
	}
	return domain.EventPayoutCompleted, nil
}
