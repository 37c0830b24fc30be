package mappers

import (
	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/models"
	"github.com/lib/pq"
)

func ToDomainPayout(model *models.PayoutModel) *domain.Payout {
	return &domain.Payout{
		ID:                   model.ID,
		NumericID:            model.NumericID,
		MerchantID:           model.MerchantID,
		ExternalID:           model.ExternalID,
		Direction:            domain.Direction(model.Direction),
		Status:               domain.PayoutStatus(model.Status),
		Amount:               model.Amount,
		AmountAsset:          model.AmountAsset,
		Total:                model.Total,
		TotalAsset:           model.TotalAsset,
		Rate:                 model.Rate,
		MerchantRate:         model.MerchantRate,
		RateDelta:            model.RateDelta,
		FeePercent:           model.FeePercent,
		TraderID:             model.TraderID,
		PreviousTraderIDs:    []string(model.PreviousTraderIDs),
		BlacklistedTraderIDs: []string(model.BlacklistedTraderIDs),
		FrozenAmount:         model.FrozenAmount,
		SumToWriteOffAsset:   model.SumToWriteOffAsset,
		ProfitAmount:         model.ProfitAmount,
		ProfitBanked:         model.ProfitBanked,
		Wallet:               model.Wallet,
		Bank:                 model.Bank,
		IsCard:               model.IsCard,
		ProcessingMinutes:    model.ProcessingMinutes,
		ExpireAt:             model.ExpireAt,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
		AcceptedAt:           model.AcceptedAt,
		ConfirmedAt:          model.ConfirmedAt,
		CompletedAt:          model.CompletedAt,
		CancelledAt:          model.CancelledAt,
		DisputedAt:           model.DisputedAt,
		NotifiedAt:           model.NotifiedAt,
		ProofFiles:           []string(model.ProofFiles),
		DisputeFiles:         []string(model.DisputeFiles),
		DisputeMessage:       model.DisputeMessage,
		CancelReason:         model.CancelReason,
		CancelReasonCode:     model.CancelReasonCode,
		WebhookURL:           model.WebhookURL,
		Metadata:             model.Metadata,
	}
}

func ToGORMPayout(payout *domain.Payout) *models.PayoutModel {
	return &models.PayoutModel{
		ID:                   payout.ID,
		NumericID:            payout.NumericID,
		MerchantID:           payout.MerchantID,
		ExternalID:           payout.ExternalID,
		Direction:            string(payout.Direction),
		Status:               string(payout.Status),
		Amount:               payout.Amount,
		AmountAsset:          payout.AmountAsset,
		Total:                payout.Total,
		TotalAsset:           payout.TotalAsset,
		Rate:                 payout.Rate,
		MerchantRate:         payout.MerchantRate,
		RateDelta:            payout.RateDelta,
		FeePercent:           payout.FeePercent,
		TraderID:             payout.TraderID,
		PreviousTraderIDs:    pq.StringArray(payout.PreviousTraderIDs),
		BlacklistedTraderIDs: pq.StringArray(payout.BlacklistedTraderIDs),
		FrozenAmount:         payout.FrozenAmount,
		SumToWriteOffAsset:   payout.SumToWriteOffAsset,
		ProfitAmount:         payout.ProfitAmount,
		ProfitBanked:         payout.ProfitBanked,
		Wallet:               payout.Wallet,
		Bank:                 payout.Bank,
		IsCard:               payout.IsCard,
		ProcessingMinutes:    payout.ProcessingMinutes,
		ExpireAt:             payout.ExpireAt,
		CreatedAt:            payout.CreatedAt,
		UpdatedAt:            payout.UpdatedAt,
		AcceptedAt:           payout.AcceptedAt,
		ConfirmedAt:          payout.ConfirmedAt,
		CompletedAt:          payout.CompletedAt,
		CancelledAt:          payout.CancelledAt,
		DisputedAt:           payout.DisputedAt,
		NotifiedAt:           payout.NotifiedAt,
		ProofFiles:           pq.StringArray(payout.ProofFiles),
		DisputeFiles:         pq.StringArray(payout.DisputeFiles),
		DisputeMessage:       payout.DisputeMessage,
		CancelReason:         payout.CancelReason,
		CancelReasonCode:     payout.CancelReasonCode,
		WebhookURL:           payout.WebhookURL,
		Metadata:             payout.Metadata,
	}
}

func ToGORMRateAudit(audit *domain.RateAudit) *models.RateAuditModel {
	return &models.RateAuditModel{
		ID:            audit.ID,
		PayoutID:      audit.PayoutID,
		AdminID:       audit.AdminID,
		OldRateDelta:  audit.OldRateDelta,
		NewRateDelta:  audit.NewRateDelta,
		OldFeePercent: audit.OldFeePercent,
		NewFeePercent: audit.NewFeePercent,
		CreatedAt:     audit.CreatedAt,
	}
}
