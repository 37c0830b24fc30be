package payout

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreatePayoutInput struct {
	MerchantID string
	ExternalID string
	Amount     decimal.Decimal

	// MerchantRate - нулевой курс берётся у провайдера
	MerchantRate decimal.Decimal
	RateDelta    decimal.Decimal
	// FeePercent - nil означает комиссию по умолчанию
	FeePercent *decimal.Decimal

	ProcessingMinutes    int
	Wallet               string
	Bank                 string
	IsCard               bool
	BlacklistedTraderIDs []string
	WebhookURL           string
	Metadata             string
}

func (in *CreatePayoutInput) validate() error {
	if in.MerchantID == "" {
		return domain.NewValidationError("merchant_id", "is required")
	}
	if !in.Amount.IsPositive() {
		return domain.NewValidationError("amount", "must be positive")
	}
	if in.MerchantRate.IsNegative() {
		return domain.NewValidationError("merchant_rate", "must not be negative")
	}
	if in.ProcessingMinutes < 0 {
		return domain.NewValidationError("processing_time", "must not be negative")
	}
	if in.Wallet == "" {
		return domain.NewValidationError("wallet", "is required")
	}
	return nil
}

func (uc *DefaultPayoutUsecase) CreatePayout(ctx context.Context, input *CreatePayoutInput) (*domain.Payout, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	fee := uc.Config.DefaultFeePercent
	if input.FeePercent != nil {
		fee = *input.FeePercent
	}
	if err := domain.ValidateRateParams(input.RateDelta, fee); err != nil {
		return nil, err
	}

	merchantRate := input.MerchantRate
	if merchantRate.IsZero() {
		rate, err := uc.RateProvider.GetRate(ctx)
		if err != nil {
			return nil, fmt.Errorf("get merchant rate: %w", err)
		}
		merchantRate = rate
	}

	quote := domain.QuotePayout(input.Amount, merchantRate, input.RateDelta, fee)
	if !quote.Rate.IsPositive() {
		return nil, domain.NewValidationError("rate_delta", "resulting rate must be positive")
	}

	processing := input.ProcessingMinutes
	if processing == 0 {
		processing = uc.Config.DefaultProcessingMinutes
	}

	now := uc.now()
	payout := &domain.Payout{
		ID:                   uuid.New().String(),
		MerchantID:           input.MerchantID,
		ExternalID:           input.ExternalID,
		Direction:            domain.DirectionOut,
		Status:               domain.PayoutCreated,
		Amount:               input.Amount,
		MerchantRate:         merchantRate,
		RateDelta:            input.RateDelta,
		FeePercent:           fee,
		Wallet:               input.Wallet,
		Bank:                 input.Bank,
		IsCard:               input.IsCard,
		ProcessingMinutes:    processing,
		BlacklistedTraderIDs: input.BlacklistedTraderIDs,
		WebhookURL:           input.WebhookURL,
		Metadata:             input.Metadata,
		CreatedAt:            now,
		ExpireAt:             now.Add(uc.processingWindow(&domain.Payout{ProcessingMinutes: processing})),
	}
	payout.ApplyQuote(quote)

	if err := uc.PayoutRepo.CreatePayout(ctx, payout); err != nil {
		uc.recordOperationError("create", err)
		return nil, fmt.Errorf("create payout: %w", err)
	}

	uc.recordPayoutCreatedMetrics(payout)
	uc.afterCommit(ctx, "create", transitionResult{payout: payout, event: domain.EventPayoutCreated})
	return payout, nil
}
