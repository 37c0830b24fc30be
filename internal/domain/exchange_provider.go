package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type ExchangeConfig struct {
	CurrencyPair       string
	OrderBookPositions *OrderBookRange
}

type OrderBookRange struct {
	Start int
	End   int
}

type ExchangeRateProvider interface {
	GetRate(ctx context.Context, config *ExchangeConfig) (decimal.Decimal, error)
	GetName() string
	IsHealthy(ctx context.Context) bool
}

// RateProvider - курс RUB за 1 USDT для новых выплат
type RateProvider interface {
	GetRate(ctx context.Context) (decimal.Decimal, error)
}
