package domain

import "context"

// Ledger - транзакционное хранилище выплат и балансов трейдеров.
// Всё, что внутри fn, либо коммитится целиком, либо откатывается.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

type LedgerTx interface {
	// PayoutForUpdate и TraderForUpdate блокируют строку до конца транзакции
	PayoutForUpdate(ctx context.Context, payoutID string) (*Payout, error)
	TraderForUpdate(ctx context.Context, traderID string) (*Trader, error)
	CountActivePayouts(ctx context.Context, traderID string) (int64, error)
	MerchantTrader(ctx context.Context, merchantID, traderID string) (*MerchantTrader, error)

	// UpdatePayout пишет выплату, только если строка всё ещё в состоянии guard.
	// Иначе ErrStaleState.
	UpdatePayout(ctx context.Context, payout *Payout, guard PayoutGuard) error
	UpdateTraderBalances(ctx context.Context, trader *Trader) error
	CreateRateAudit(ctx context.Context, audit *RateAudit) error

	DisputeForUpdate(ctx context.Context, disputeID string) (*Dispute, error)
	CreateDispute(ctx context.Context, dispute *Dispute) error
	UpdateDispute(ctx context.Context, dispute *Dispute) error
	HasDisputeMessage(ctx context.Context, disputeID, senderID, contains string) (bool, error)
	CreateDisputeMessage(ctx context.Context, msg *DisputeMessage) error
	SetDealStatus(ctx context.Context, dealID string, status DealStatus) error
}
