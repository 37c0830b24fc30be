package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DisputeModel struct {
	ID         string `gorm:"primaryKey"`
	Kind       string `gorm:"not null"`
	SubjectID  string `gorm:"index;not null"`
	MerchantID string
	TraderID   string
	Status     string `gorm:"index;not null"`
	Resolution string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}

func (DisputeModel) TableName() string {
	return "disputes"
}

type DisputeMessageModel struct {
	ID         string `gorm:"primaryKey"`
	DisputeID  string `gorm:"index;not null"`
	SenderID   string `gorm:"not null"`
	SenderType string
	Message    string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (DisputeMessageModel) TableName() string {
	return "dispute_messages"
}

// DealModel - входящие сделки; сервис только закрывает их по итогам споров
type DealModel struct {
	ID         string `gorm:"primaryKey"`
	MerchantID string
	TraderID   string
	Amount     decimal.Decimal `gorm:"type:numeric(20,2)"`
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DealModel) TableName() string {
	return "deals"
}
