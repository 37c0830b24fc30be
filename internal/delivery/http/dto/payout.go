package dto

import (
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CreatePayoutRequest struct {
	ExternalID           string           `json:"external_id"`
	Amount               decimal.Decimal  `json:"amount"`
	MerchantRate         decimal.Decimal  `json:"merchant_rate"`
	RateDelta            decimal.Decimal  `json:"rate_delta"`
	FeePercent           *decimal.Decimal `json:"fee_percent"`
	ProcessingMinutes    int              `json:"processing_minutes"`
	Wallet               string           `json:"wallet"`
	Bank                 string           `json:"bank"`
	IsCard               bool             `json:"is_card"`
	BlacklistedTraderIDs []string         `json:"blacklisted_trader_ids"`
	WebhookURL           string           `json:"webhook_url"`
	Metadata             string           `json:"metadata"`
}

type ReasonRequest struct {
	Reason     string   `json:"reason"`
	ReasonCode string   `json:"reason_code"`
	Files      []string `json:"files"`
}

type DisputeRequest struct {
	Message string   `json:"message"`
	Files   []string `json:"files"`
}

type ConfirmRequest struct {
	ProofFiles []string `json:"proof_files"`
}

type AdjustRateRequest struct {
	RateDelta  decimal.Decimal `json:"rate_delta"`
	FeePercent decimal.Decimal `json:"fee_percent"`
}

type ResolveDisputeRequest struct {
	Outcome    string `json:"outcome"`
	Resolution string `json:"resolution"`
}

type AssignRequest struct {
	TraderID string `json:"trader_id"`
	Reserve  bool   `json:"reserve"`
}

type DistributionToggleRequest struct {
	Enabled bool `json:"enabled"`
}

type PayoutResponse struct {
	ID                 string     `json:"id"`
	NumericID          int64      `json:"numeric_id"`
	MerchantID         string     `json:"merchant_id"`
	ExternalID         string     `json:"external_id"`
	Status             string     `json:"status"`
	Amount             string     `json:"amount"`
	AmountAsset        string     `json:"amount_asset"`
	Total              string     `json:"total"`
	TotalAsset         string     `json:"total_asset"`
	Rate               string     `json:"rate"`
	MerchantRate       string     `json:"merchant_rate"`
	RateDelta          string     `json:"rate_delta"`
	FeePercent         string     `json:"fee_percent"`
	TraderID           string     `json:"trader_id,omitempty"`
	FrozenAmount       string     `json:"frozen_amount"`
	SumToWriteOffAsset string     `json:"sum_to_write_off_asset"`
	ProfitAmount       string     `json:"profit_amount"`
	Wallet             string     `json:"wallet"`
	Bank               string     `json:"bank"`
	IsCard             bool       `json:"is_card"`
	ExpireAt           time.Time  `json:"expire_at"`
	CreatedAt          time.Time  `json:"created_at"`
	AcceptedAt         *time.Time `json:"accepted_at,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	DisputedAt         *time.Time `json:"disputed_at,omitempty"`
	ProofFiles         []string   `json:"proof_files,omitempty"`
	DisputeMessage     string     `json:"dispute_message,omitempty"`
	CancelReason       string     `json:"cancel_reason,omitempty"`
}

func ToPayoutResponse(p *domain.Payout) PayoutResponse {
	return PayoutResponse{
		ID:                 p.ID,
		NumericID:          p.NumericID,
		MerchantID:         p.MerchantID,
		ExternalID:         p.ExternalID,
		Status:             string(p.Status),
		Amount:             p.Amount.StringFixed(2),
		AmountAsset:        p.AmountAsset.StringFixed(2),
		Total:              p.Total.StringFixed(2),
		TotalAsset:         p.TotalAsset.StringFixed(2),
		Rate:               p.Rate.String(),
		MerchantRate:       p.MerchantRate.String(),
		RateDelta:          p.RateDelta.String(),
		FeePercent:         p.FeePercent.String(),
		TraderID:           p.TraderID,
		FrozenAmount:       p.FrozenAmount.StringFixed(2),
		SumToWriteOffAsset: p.SumToWriteOffAsset.StringFixed(2),
		ProfitAmount:       p.ProfitAmount.StringFixed(2),
		Wallet:             p.Wallet,
		Bank:               p.Bank,
		IsCard:             p.IsCard,
		ExpireAt:           p.ExpireAt,
		CreatedAt:          p.CreatedAt,
		AcceptedAt:         p.AcceptedAt,
		ConfirmedAt:        p.ConfirmedAt,
		CompletedAt:        p.CompletedAt,
		CancelledAt:        p.CancelledAt,
		DisputedAt:         p.DisputedAt,
		ProofFiles:         p.ProofFiles,
		DisputeMessage:     p.DisputeMessage,
		CancelReason:       p.CancelReason,
	}
}

type PayoutListResponse struct {
	Payouts []PayoutResponse `json:"payouts"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

type DisputeResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	SubjectID  string     `json:"subject_id"`
	Status     string     `json:"status"`
	Resolution string     `json:"resolution,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func ToDisputeResponse(d *domain.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:         d.ID,
		Kind:       string(d.Kind),
		SubjectID:  d.SubjectID,
		Status:     string(d.Status),
		Resolution: d.Resolution,
		CreatedAt:  d.CreatedAt,
		ResolvedAt: d.ResolvedAt,
	}
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
