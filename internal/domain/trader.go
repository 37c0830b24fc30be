package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TrafficType string

const (
	TrafficCard     TrafficType = "card"
	TrafficTransfer TrafficType = "transfer"
	TrafficBoth     TrafficType = "both"
)

// Accepts - подходит ли выплата с типом t под настройку трейдера
func (tt TrafficType) Accepts(t TrafficType) bool {
	return tt == "" || tt == TrafficBoth || tt == t
}

type PayoutFilters struct {
	MaxPayoutAmount decimal.Decimal // >0 - лимит задан
	TrafficType     TrafficType
	Banks           []string // канонические коды банков, пусто - любые
}

type Trader struct {
	ID             string
	Name           string
	TelegramChatID int64

	BalanceSettlement      decimal.Decimal
	FrozenSettlement       decimal.Decimal
	BalanceSettlementAsset decimal.Decimal
	ProfitFromPayouts      decimal.Decimal
	Deposit                decimal.Decimal

	MaxSimultaneousPayouts int
	TrafficEnabled         bool
	Banned                 bool

	PayoutFilters *PayoutFilters
	CreatedAt     time.Time
}

// Candidate - трейдер из пула распределения с текущей нагрузкой
type Candidate struct {
	Trader        *Trader
	ActivePayouts int64
}

type TraderRepository interface {
	GetTraderByID(ctx context.Context, traderID string) (*Trader, error)
	// FindCandidates - трейдеры с banned=false и trafficEnabled=true
	// вместе с количеством назначенных, активных и проверяемых выплат
	FindCandidates(ctx context.Context) ([]*Candidate, error)
	FindMerchantTraders(ctx context.Context, merchantIDs []string) ([]*MerchantTrader, error)
}
