package domain

import "context"

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, msgs ...Message) error
}

type PayoutEvent string

const (
	EventPayoutCreated   PayoutEvent = "payout.created"
	EventPayoutAssigned  PayoutEvent = "payout.assigned"
	EventPayoutActive    PayoutEvent = "payout.active"
	EventPayoutChecking  PayoutEvent = "payout.checking"
	EventPayoutCompleted PayoutEvent = "payout.completed"
	EventPayoutCancelled PayoutEvent = "payout.cancelled"
	EventPayoutReturned  PayoutEvent = "payout.returned"
	EventPayoutExpired   PayoutEvent = "payout.expired"
	EventPayoutDisputed  PayoutEvent = "payout.disputed"
	EventPayoutRejected  PayoutEvent = "payout.rejected"
	EventPayoutRateSet   PayoutEvent = "payout.rate_adjusted"
)

// NotificationSink - уведомление трейдера о новой выплате, best-effort
type NotificationSink interface {
	NotifyTraderNewPayout(ctx context.Context, trader *Trader, payout *Payout) error
}

// WebhookDispatcher - колбэк мерчанту, не блокирует вызывающего
type WebhookDispatcher interface {
	SendStatusWebhook(ctx context.Context, payout *Payout, event PayoutEvent)
}

// Broadcaster - realtime-рассылка подписчикам, at-most-once
type Broadcaster interface {
	BroadcastUpdate(ctx context.Context, payoutID string, event PayoutEvent, payout *Payout, merchantID, traderID string) error
}

// ConfigStore - системные настройки ключ/значение, читаются на каждом тике
type ConfigStore interface {
	GetValues(ctx context.Context, keys ...string) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
}
