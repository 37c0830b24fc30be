package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type DisputeKind string

const (
	DisputeDeal       DisputeKind = "DEAL"
	DisputeWithdrawal DisputeKind = "WITHDRAWAL"
)

type DisputeStatus string

const (
	DisputeOpen            DisputeStatus = "OPEN"
	DisputeInProgress      DisputeStatus = "IN_PROGRESS"
	DisputeResolvedSuccess DisputeStatus = "RESOLVED_SUCCESS" // в пользу мерчанта
	DisputeResolvedFail    DisputeStatus = "RESOLVED_FAIL"    // в пользу трейдера
)

func (s DisputeStatus) IsActive() bool {
	return s == DisputeOpen || s == DisputeInProgress
}

type Dispute struct {
	ID         string
	Kind       DisputeKind
	SubjectID  string // payout id для WITHDRAWAL, deal id для DEAL
	MerchantID string
	TraderID   string
	Status     DisputeStatus
	Resolution string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

const (
	SenderSystem   = "system"
	SenderAdmin    = "ADMIN"
	SenderMerchant = "MERCHANT"
)

const DisputeTimeoutMessage = "Время на ответ истекло, спор будет рассмотрен администратором. Переписка может быть продолжена."

type DisputeMessage struct {
	ID         string
	DisputeID  string
	SenderID   string
	SenderType string
	Message    string
	CreatedAt  time.Time
}

type DealStatus string

const (
	DealInProgress DealStatus = "IN_PROGRESS"
	DealDispute    DealStatus = "DISPUTE"
	DealCompleted  DealStatus = "COMPLETED"
	DealCancelled  DealStatus = "CANCELLED"
)

// Deal - входящая сделка; в движке нужна только для закрытия споров
type Deal struct {
	ID         string
	MerchantID string
	TraderID   string
	Amount     decimal.Decimal
	Status     DealStatus
}

type DisputeRepository interface {
	GetDisputeByID(ctx context.Context, disputeID string) (*Dispute, error)
	FindActiveDisputes(ctx context.Context) ([]*Dispute, error)
}
