package payout

import (
	"context"
	"fmt"
	"slices"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

// ConfirmPayout - трейдер прикладывает подтверждение оплаты, выплата уходит на проверку.
// Прибыль считается сейчас, а начисляется при одобрении.
func (uc *DefaultPayoutUsecase) ConfirmPayout(ctx context.Context, payoutID, traderID string, proofFiles []string) (*domain.Payout, error) {
	return uc.transition(ctx, "confirm", payoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if p.Status != domain.PayoutActive {
			return "", domain.InvalidState("confirm", p.Status)
		}
		if err := requireTrader(p, traderID); err != nil {
			return "", err
		}

		rel, err := tx.MerchantTrader(ctx, p.MerchantID, p.TraderID)
		if err != nil {
			return "", fmt.Errorf("get merchant trader relation: %w", err)
		}

		now := uc.now()
		p.ProfitAmount = computeProfit(p, rel)
		// курс могли поправить после принятия
		p.SumToWriteOffAsset = p.TotalAsset
		p.ProofFiles = slices.Clone(proofFiles)
		p.ConfirmedAt = &now
		p.Status = domain.PayoutChecking
		return domain.EventPayoutChecking, nil
	})
}

// computeProfit: индивидуальный процент по связке мерчант-трейдер,
// иначе разница между суммой с комиссией и без неё.
func computeProfit(p *domain.Payout, rel *domain.MerchantTrader) decimal.Decimal {
	if rel != nil && rel.FeeOut != nil {
		return domain.PercentOf(p.AmountAsset, *rel.FeeOut)
	}
	return p.TotalAsset.Sub(p.AmountAsset)
}
