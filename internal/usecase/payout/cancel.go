package payout

import (
	"context"
	"slices"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CancelPayoutInput struct {
	PayoutID   string
	TraderID   string
	Reason     string
	ReasonCode string
	Files      []string
}

// CancelPayout - трейдер отказывается от выплаты. Заморозка возвращается целиком,
// выплата снова свободна, а трейдер попадает в PreviousTraderIDs.
func (uc *DefaultPayoutUsecase) CancelPayout(ctx context.Context, input *CancelPayoutInput) (*domain.Payout, error) {
	return uc.transition(ctx, "cancel", input.PayoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		switch p.Status {
		case domain.PayoutActive, domain.PayoutChecking:
		case domain.PayoutCreated:
			// отказ от закреплённой, но ещё не принятой выплаты
			if !p.IsAssigned() {
				return "", domain.InvalidState("cancel", p.Status)
			}
		default:
			return "", domain.InvalidState("cancel", p.Status)
		}
		if err := requireTrader(p, input.TraderID); err != nil {
			return "", err
		}
		if err := uc.release(ctx, tx, p); err != nil {
			return "", err
		}

		now := uc.now()
		if !slices.Contains(p.PreviousTraderIDs, p.TraderID) {
			p.PreviousTraderIDs = append(p.PreviousTraderIDs, p.TraderID)
		}
		p.TraderID = ""
		p.Status = domain.PayoutCreated
		p.AcceptedAt = nil
		p.ConfirmedAt = nil
		p.NotifiedAt = nil
		p.SumToWriteOffAsset = decimal.Zero
		p.ProfitAmount = decimal.Zero
		p.CancelReason = input.Reason
		p.CancelReasonCode = input.ReasonCode
		if len(input.Files) > 0 {
			p.DisputeFiles = slices.Clone(input.Files)
		}
		p.ExpireAt = now.Add(uc.processingWindow(p))
		return domain.EventPayoutReturned, nil
	})
}

// CancelByMerchant - мерчант отзывает выплату, пока её не начали проверять
func (uc *DefaultPayoutUsecase) CancelByMerchant(ctx context.Context, payoutID, merchantID, reason string) (*domain.Payout, error) {
	return uc.transition(ctx, "merchant_cancel", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if err := requireMerchant(p, merchantID); err != nil {
			return "", err
		}
		if p.Status != domain.PayoutCreated && p.Status != domain.PayoutActive {
			return "", domain.InvalidState("cancel", p.Status)
		}
		return uc.cancelTerminal(ctx, tx, p, reason)
	})
}

// ForceCancel - администратор закрывает выплату, в том числе из CHECKING
func (uc *DefaultPayoutUsecase) ForceCancel(ctx context.Context, payoutID, adminID, reason string) (*domain.Payout, error) {
	uc.Logger.Info("admin force cancel", "payout_id", payoutID, "admin_id", adminID)
	return uc.transition(ctx, "force_cancel", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		switch p.Status {
		case domain.PayoutCreated, domain.PayoutActive, domain.PayoutChecking:
		default:
			return "", domain.InvalidState("cancel", p.Status)
		}
		return uc.cancelTerminal(ctx, tx, p, reason)
	})
}

func (uc *DefaultPayoutUsecase) cancelTerminal(ctx context.Context, tx domain.LedgerTx, p *domain.Payout, reason string) (domain.PayoutEvent, error) {
	if err := uc.release(ctx, tx, p); err != nil {
		return "", err
	}
	now := uc.now()
	p.Status = domain.PayoutCancelled
	p.CancelReason = reason
	p.CancelledAt = &now
	return domain.EventPayoutCancelled, nil
}
