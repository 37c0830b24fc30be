package payout

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AdjustRateInput struct {
	PayoutID   string
	AdminID    string
	RateDelta  decimal.Decimal
	FeePercent decimal.Decimal
}

// AdjustRate пересчитывает курс и суммы по новым дельте и комиссии.
// Уже замороженная у трейдера сумма не меняется.
func (uc *DefaultPayoutUsecase) AdjustRate(ctx context.Context, input *AdjustRateInput) (*domain.Payout, error) {
	if err := domain.ValidateRateParams(input.RateDelta, input.FeePercent); err != nil {
		return nil, err
	}

	return uc.transition(ctx, "adjust_rate", input.PayoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if p.Status != domain.PayoutCreated && p.Status != domain.PayoutActive {
			return "", domain.InvalidState("adjust rate of", p.Status)
		}

		quote := domain.QuotePayout(p.Amount, p.MerchantRate, input.RateDelta, input.FeePercent)
		if !quote.Rate.IsPositive() {
			return "", domain.NewValidationError("rate_delta", "resulting rate must be positive")
		}

		audit := &domain.RateAudit{
			ID:            uuid.New().String(),
			PayoutID:      p.ID,
			AdminID:       input.AdminID,
			OldRateDelta:  p.RateDelta,
			NewRateDelta:  input.RateDelta,
			OldFeePercent: p.FeePercent,
			NewFeePercent: input.FeePercent,
			CreatedAt:     uc.now(),
		}
		if err := tx.CreateRateAudit(ctx, audit); err != nil {
			return "", fmt.Errorf("create rate audit: %w", err)
		}

		p.RateDelta = input.RateDelta
		p.FeePercent = input.FeePercent
		p.ApplyQuote(quote)
		if p.Status == domain.PayoutActive {
			p.SumToWriteOffAsset = p.TotalAsset
		}
		return domain.EventPayoutRateSet, nil
	})
}
