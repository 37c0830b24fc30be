package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type PayoutModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	NumericID  int64  `gorm:"->;type:bigserial;uniqueIndex"`
	MerchantID string `gorm:"index:idx_payout_merchant"`
	ExternalID string `gorm:"index:idx_payout_merchant"`
	Direction  string
	Status     string `gorm:"index:idx_payout_status_expire"`
	TraderID   string `gorm:"index:idx_payout_trader"`

	Amount       decimal.Decimal `gorm:"type:numeric(20,2)"`
	AmountAsset  decimal.Decimal `gorm:"type:numeric(20,2)"`
	Total        decimal.Decimal `gorm:"type:numeric(20,2)"`
	TotalAsset   decimal.Decimal `gorm:"type:numeric(20,2)"`
	Rate         decimal.Decimal `gorm:"type:numeric(20,8)"`
	MerchantRate decimal.Decimal `gorm:"type:numeric(20,8)"`
	RateDelta    decimal.Decimal `gorm:"type:numeric(20,8)"`
	FeePercent   decimal.Decimal `gorm:"type:numeric(10,4)"`

	FrozenAmount       decimal.Decimal `gorm:"type:numeric(20,2)"`
	SumToWriteOffAsset decimal.Decimal `gorm:"type:numeric(20,2)"`
	ProfitAmount       decimal.Decimal `gorm:"type:numeric(20,2)"`
	ProfitBanked       decimal.Decimal `gorm:"type:numeric(20,2)"`

	PreviousTraderIDs    pq.StringArray `gorm:"type:text[]"`
	BlacklistedTraderIDs pq.StringArray `gorm:"type:text[]"`

	Wallet            string
	Bank              string
	IsCard            bool
	ProcessingMinutes int

	ExpireAt    time.Time `gorm:"index:idx_payout_status_expire"`
	CreatedAt   time.Time `gorm:"index:idx_payout_created_at"`
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	ConfirmedAt *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	DisputedAt  *time.Time
	NotifiedAt  *time.Time

	ProofFiles       pq.StringArray `gorm:"type:text[]"`
	DisputeFiles     pq.StringArray `gorm:"type:text[]"`
	DisputeMessage   string
	CancelReason     string
	CancelReasonCode string

	WebhookURL string
	Metadata   string `gorm:"type:text"`
}

func (PayoutModel) TableName() string {
	return "payouts"
}

type RateAuditModel struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	PayoutID      string          `gorm:"type:uuid;index;not null"`
	AdminID       string          `gorm:"not null"`
	OldRateDelta  decimal.Decimal `gorm:"type:numeric(20,8)"`
	NewRateDelta  decimal.Decimal `gorm:"type:numeric(20,8)"`
	OldFeePercent decimal.Decimal `gorm:"type:numeric(10,4)"`
	NewFeePercent decimal.Decimal `gorm:"type:numeric(10,4)"`
	CreatedAt     time.Time
}

func (RateAuditModel) TableName() string {
	return "payout_rate_audits"
}
