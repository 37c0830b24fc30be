package domain

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutCreated   PayoutStatus = "CREATED"
	PayoutActive    PayoutStatus = "ACTIVE"
	PayoutChecking  PayoutStatus = "CHECKING"
	PayoutCompleted PayoutStatus = "COMPLETED"
	PayoutCancelled PayoutStatus = "CANCELLED"
	PayoutExpired   PayoutStatus = "EXPIRED"
	PayoutDisputed  PayoutStatus = "DISPUTED"
	PayoutRejected  PayoutStatus = "REJECTED"
)

// IsTerminal - статусы, из которых выплата уже не выходит
func (s PayoutStatus) IsTerminal() bool {
	switch s {
	case PayoutCompleted, PayoutCancelled, PayoutExpired, PayoutRejected:
		return true
	}
	return false
}

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

const DefaultProcessingMinutes = 15

type Payout struct {
	ID         string
	NumericID  int64
	MerchantID string
	ExternalID string
	Direction  Direction
	Status     PayoutStatus

	// Суммы: Amount/Total в рублях, *Asset в USDT
	Amount       decimal.Decimal
	AmountAsset  decimal.Decimal
	Total        decimal.Decimal
	TotalAsset   decimal.Decimal
	Rate         decimal.Decimal
	MerchantRate decimal.Decimal
	RateDelta    decimal.Decimal
	FeePercent   decimal.Decimal

	TraderID             string
	PreviousTraderIDs    []string
	BlacklistedTraderIDs []string

	// FrozenAmount - ровно та сумма, которую заморозили при принятии.
	// Отмена и истечение возвращают именно её.
	FrozenAmount       decimal.Decimal
	SumToWriteOffAsset decimal.Decimal
	ProfitAmount       decimal.Decimal
	ProfitBanked       decimal.Decimal

	Wallet            string
	Bank              string
	IsCard            bool
	ProcessingMinutes int

	ExpireAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	ConfirmedAt *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	DisputedAt  *time.Time
	NotifiedAt  *time.Time

	ProofFiles       []string
	DisputeFiles     []string
	DisputeMessage   string
	CancelReason     string
	CancelReasonCode string

	WebhookURL string
	Metadata   string
}

func (p *Payout) IsAssigned() bool {
	return p.TraderID != ""
}

func (p *Payout) ProcessingWindow() time.Duration {
	minutes := p.ProcessingMinutes
	if minutes <= 0 {
		minutes = DefaultProcessingMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// IsExcluded - трейдер уже держал выплату или попал в чёрный список
func (p *Payout) IsExcluded(traderID string) bool {
	return slices.Contains(p.PreviousTraderIDs, traderID) ||
		slices.Contains(p.BlacklistedTraderIDs, traderID)
}

func (p *Payout) TrafficType() TrafficType {
	if p.IsCard {
		return TrafficCard
	}
	return TrafficTransfer
}

// PayoutGuard - ожидаемое состояние строки при условном обновлении.
// Пустой TraderID означает "не назначена".
type PayoutGuard struct {
	Status   PayoutStatus
	TraderID string
}

func GuardOf(p *Payout) PayoutGuard {
	return PayoutGuard{Status: p.Status, TraderID: p.TraderID}
}

type PayoutFilter struct {
	MerchantID string
	TraderID   string
	Statuses   []PayoutStatus
	Page       int
	Limit      int
}

type PayoutRepository interface {
	CreatePayout(ctx context.Context, payout *Payout) error
	GetPayoutByID(ctx context.Context, payoutID string) (*Payout, error)
	GetPayouts(ctx context.Context, filter PayoutFilter) ([]*Payout, int64, error)
	FindUnassignedPayouts(ctx context.Context, now time.Time, limit int) ([]*Payout, error)
	FindExpiredPayouts(ctx context.Context, now time.Time, statuses []PayoutStatus, limit int) ([]*Payout, error)
	FindUnnotifiedPayouts(ctx context.Context, limit int) ([]*Payout, error)
	MarkNotified(ctx context.Context, payoutID string, at time.Time) error
}

type RateAudit struct {
	ID            string
	PayoutID      string
	AdminID       string
	OldRateDelta  decimal.Decimal
	NewRateDelta  decimal.Decimal
	OldFeePercent decimal.Decimal
	NewFeePercent decimal.Decimal
	CreatedAt     time.Time
}
