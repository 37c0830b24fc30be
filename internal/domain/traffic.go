package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MerchantTrader - связь мерчанта и трейдера.
// PayoutsEnabled - флаг OUT-операций, FeeOut - индивидуальный процент прибыли.
type MerchantTrader struct {
	ID             string
	MerchantID     string
	TraderID       string
	PayoutsEnabled bool
	FeeOut         *decimal.Decimal
}

type Merchant struct {
	ID            string
	Name          string
	WebhookSecret string
}

type MerchantRepository interface {
	GetMerchantByID(ctx context.Context, merchantID string) (*Merchant, error)
}
