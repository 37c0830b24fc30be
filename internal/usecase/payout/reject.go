package payout

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

const minRejectReasonLength = 5

// RejectPayout - администратор возвращает выплату с проверки в работу.
// Начисленная прибыль (если была) списывается по цепочке прибыль -> USDT -> депозит.
func (uc *DefaultPayoutUsecase) RejectPayout(ctx context.Context, payoutID, adminID, reason string) (*domain.Payout, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minRejectReasonLength {
		return nil, domain.NewValidationError("reason", fmt.Sprintf("must be at least %d characters", minRejectReasonLength))
	}

	return uc.transition(ctx, "reject", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if p.Status != domain.PayoutChecking {
			return "", domain.InvalidState("reject", p.Status)
		}
		if !p.IsAssigned() {
			return "", fmt.Errorf("%w: payout has no trader", domain.ErrInvalidState)
		}

		// прибыль банкуется только при settle (COMPLETED), так что у CHECKING
		// она обычно нулевая; блок для строк, перенесённых с начисленной прибылью
		if p.ProfitBanked.IsPositive() {
			trader, err := tx.TraderForUpdate(ctx, p.TraderID)
			if err != nil {
				return "", err
			}
			remainder := recoverProfit(trader, p.ProfitBanked)
			if remainder.IsPositive() {
				uc.Logger.Error("profit reversal not fully recovered",
					"payout_id", p.ID,
					"trader_id", trader.ID,
					"admin_id", adminID,
					"requested", p.ProfitBanked,
					"unrecovered", remainder,
				)
				if uc.Metrics != nil {
					uc.Metrics.RecordUnrecoveredProfit(remainder.InexactFloat64())
				}
			}
			if err := tx.UpdateTraderBalances(ctx, trader); err != nil {
				return "", fmt.Errorf("update trader balances: %w", err)
			}
		}

		now := uc.now()
		p.ProfitBanked = decimal.Zero
		p.ProfitAmount = decimal.Zero
		p.ConfirmedAt = nil
		p.DisputeMessage = reason
		p.Status = domain.PayoutActive
		p.ExpireAt = now.Add(uc.processingWindow(p))
		return domain.EventPayoutRejected, nil
	})
}
