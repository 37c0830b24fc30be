package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type TraderModel struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	Name           string
	TelegramChatID int64

	BalanceSettlement      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:traders_balance_non_negative,balance_settlement >= 0"`
	FrozenSettlement       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:traders_frozen_non_negative,frozen_settlement >= 0"`
	BalanceSettlementAsset decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	ProfitFromPayouts      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Deposit                decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`

	MaxSimultaneousPayouts int  `gorm:"not null;default:1"`
	TrafficEnabled         bool `gorm:"default:false;index:idx_trader_pool"`
	Banned                 bool `gorm:"default:false;index:idx_trader_pool"`

	// Фильтры выплат, nil/пусто - без ограничений
	FilterMaxPayoutAmount decimal.Decimal `gorm:"type:numeric(20,2);default:0"`
	FilterTrafficType     string
	FilterBanks           pq.StringArray `gorm:"type:text[]"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TraderModel) TableName() string {
	return "traders"
}

type MerchantModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	WebhookSecret string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (MerchantModel) TableName() string {
	return "merchants"
}

type MerchantTraderModel struct {
	ID             string           `gorm:"primaryKey;type:uuid"`
	MerchantID     string           `gorm:"uniqueIndex:idx_merchant_trader;not null"`
	TraderID       string           `gorm:"uniqueIndex:idx_merchant_trader;type:uuid;not null"`
	PayoutsEnabled bool             `gorm:"default:false"`
	FeeOut         *decimal.Decimal `gorm:"type:numeric(10,4)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (MerchantTraderModel) TableName() string {
	return "merchant_traders"
}

type SystemConfigModel struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (SystemConfigModel) TableName() string {
	return "system_configs"
}
