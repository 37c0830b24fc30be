package payout

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// Assign закрепляет выплату за трейдером без заморозки средств:
// статус остаётся CREATED, деньги блокируются только при AcceptPayout.
func (uc *DefaultPayoutUsecase) Assign(ctx context.Context, payoutID, traderID string) (*domain.Payout, error) {
	return uc.transition(ctx, "assign", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if p.Status != domain.PayoutCreated {
			return "", domain.InvalidState("assign", p.Status)
		}
		if p.IsAssigned() {
			return "", domain.ErrAlreadyAssigned
		}
		if !uc.now().Before(p.ExpireAt) {
			return "", domain.ErrPayoutExpired
		}
		if _, err := tx.TraderForUpdate(ctx, traderID); err != nil {
			return "", err
		}
		p.TraderID = traderID
		return domain.EventPayoutAssigned, nil
	})
}

// AcceptPayout - трейдер берёт выплату в работу
func (uc *DefaultPayoutUsecase) AcceptPayout(ctx context.Context, payoutID, traderID string) (*domain.Payout, error) {
	return uc.transition(ctx, "accept", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if p.Status != domain.PayoutCreated {
			return "", domain.InvalidState("accept", p.Status)
		}
		if p.IsAssigned() && p.TraderID != traderID {
			return "", domain.ErrAlreadyAssigned
		}

		now := uc.now()
		if !now.Before(p.ExpireAt) {
			p.Status = domain.PayoutExpired
			return domain.EventPayoutExpired, &commitThenFail{err: domain.ErrPayoutExpired}
		}

		trader, err := tx.TraderForUpdate(ctx, traderID)
		if err != nil {
			return "", err
		}
		if err := uc.reserve(ctx, tx, p, trader, now); err != nil {
			return "", err
		}
		// трейдер взял выплату сам, уведомлять его не нужно
		if p.NotifiedAt == nil {
			p.NotifiedAt = &now
		}
		return domain.EventPayoutActive, nil
	})
}

// Reassign - системное назначение свободной выплаты с заморозкой средств,
// те же проверки, что и при принятии трейдером.
func (uc *DefaultPayoutUsecase) Reassign(ctx context.Context, payoutID, traderID string) (*domain.Payout, error) {
	return uc.transition(ctx, "reassign", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if p.Status != domain.PayoutCreated {
			return "", domain.InvalidState("reassign", p.Status)
		}
		if p.IsAssigned() {
			return "", domain.ErrAlreadyAssigned
		}
		now := uc.now()
		if !now.Before(p.ExpireAt) {
			return "", domain.ErrPayoutExpired
		}

		trader, err := tx.TraderForUpdate(ctx, traderID)
		if err != nil {
			return "", err
		}
		if err := uc.reserve(ctx, tx, p, trader, now); err != nil {
			return "", err
		}
		return domain.EventPayoutActive, nil
	})
}

// IsCapacityError - ошибки, после которых стоит попробовать другого трейдера
func IsCapacityError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientBalance) || errors.Is(err, domain.ErrLimitExceeded)
}
