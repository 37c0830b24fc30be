package notifier

import (
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// CallbackPayload - тело вебхука мерчанту
type CallbackPayload struct {
	Event  string        `json:"event"`
	Payout PayoutPayload `json:"payout"`
}

type PayoutPayload struct {
	ID           string     `json:"id"`
	NumericID    int64      `json:"numeric_id"`
	ExternalID   string     `json:"external_id"`
	Status       string     `json:"status"`
	Amount       string     `json:"amount"`
	AmountAsset  string     `json:"amount_asset"`
	Total        string     `json:"total"`
	TotalAsset   string     `json:"total_asset"`
	Rate         string     `json:"rate"`
	Wallet       string     `json:"wallet"`
	Bank         string     `json:"bank"`
	ProofFiles   []string   `json:"proof_files,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	Metadata     string     `json:"metadata,omitempty"`
}

func NewCallbackPayload(event domain.PayoutEvent, p *domain.Payout) CallbackPayload {
	return CallbackPayload{
		Event: string(event),
		Payout: PayoutPayload{
			ID:           p.ID,
			NumericID:    p.NumericID,
			ExternalID:   p.ExternalID,
			Status:       string(p.Status),
			Amount:       p.Amount.StringFixed(2),
			AmountAsset:  p.AmountAsset.StringFixed(2),
			Total:        p.Total.StringFixed(2),
			TotalAsset:   p.TotalAsset.StringFixed(2),
			Rate:         p.Rate.String(),
			Wallet:       p.Wallet,
			Bank:         p.Bank,
			ProofFiles:   p.ProofFiles,
			ConfirmedAt:  p.ConfirmedAt,
			CompletedAt:  p.CompletedAt,
			CancelledAt:  p.CancelledAt,
			CancelReason: p.CancelReason,
			Metadata:     p.Metadata,
		},
	}
}
