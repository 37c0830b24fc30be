package memory

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/google/uuid"
)

// WithinTx держит мьютекс на всё время fn. Изменения копятся в memTx
// и применяются только при nil-ошибке.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:        s,
		payouts:  make(map[string]*domain.Payout),
		traders:  make(map[string]*domain.Trader),
		disputes: make(map[string]*domain.Dispute),
		deals:    make(map[string]domain.DealStatus),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	s *Store

	payouts  map[string]*domain.Payout
	traders  map[string]*domain.Trader
	disputes map[string]*domain.Dispute
	deals    map[string]domain.DealStatus
	messages []*domain.DisputeMessage
	audits   []*domain.RateAudit
}

func (tx *memTx) commit() {
	now := time.Now()
	for id, p := range tx.payouts {
		p.UpdatedAt = now
		tx.s.payouts[id] = p
	}
	for id, t := range tx.traders {
		tx.s.traders[id] = t
	}
	for id, d := range tx.disputes {
		tx.s.disputes[id] = d
	}
	for id, status := range tx.deals {
		tx.s.deals[id].Status = status
	}
	tx.s.messages = append(tx.s.messages, tx.messages...)
	tx.s.audits = append(tx.s.audits, tx.audits...)
}

func (tx *memTx) currentPayout(payoutID string) (*domain.Payout, bool) {
	if p, ok := tx.payouts[payoutID]; ok {
		return p, true
	}
	p, ok := tx.s.payouts[payoutID]
	return p, ok
}

func (tx *memTx) PayoutForUpdate(ctx context.Context, payoutID string) (*domain.Payout, error) {
	p, ok := tx.currentPayout(payoutID)
	if !ok {
		return nil, domain.ErrPayoutNotFound
	}
	return clonePayout(p), nil
}

func (tx *memTx) TraderForUpdate(ctx context.Context, traderID string) (*domain.Trader, error) {
	if t, ok := tx.traders[traderID]; ok {
		return cloneTrader(t), nil
	}
	t, ok := tx.s.traders[traderID]
	if !ok {
		return nil, domain.ErrTraderNotFound
	}
	return cloneTrader(t), nil
}

func (tx *memTx) CountActivePayouts(ctx context.Context, traderID string) (int64, error) {
	return tx.s.countActive(traderID, tx.payouts), nil
}

func (tx *memTx) MerchantTrader(ctx context.Context, merchantID, traderID string) (*domain.MerchantTrader, error) {
	rel, ok := tx.s.relations[relationKey(merchantID, traderID)]
	if !ok {
		return nil, nil
	}
	c := *rel
	return &c, nil
}

func (tx *memTx) UpdatePayout(ctx context.Context, payout *domain.Payout, guard domain.PayoutGuard) error {
	current, ok := tx.currentPayout(payout.ID)
	if !ok {
		return domain.ErrPayoutNotFound
	}
	if current.Status != guard.Status || current.TraderID != guard.TraderID {
		return domain.ErrStaleState
	}
	tx.payouts[payout.ID] = clonePayout(payout)
	return nil
}

func (tx *memTx) UpdateTraderBalances(ctx context.Context, trader *domain.Trader) error {
	current, err := tx.TraderForUpdate(ctx, trader.ID)
	if err != nil {
		return err
	}
	current.BalanceSettlement = trader.BalanceSettlement
	current.FrozenSettlement = trader.FrozenSettlement
	current.BalanceSettlementAsset = trader.BalanceSettlementAsset
	current.ProfitFromPayouts = trader.ProfitFromPayouts
	current.Deposit = trader.Deposit
	tx.traders[trader.ID] = current
	return nil
}

func (tx *memTx) CreateRateAudit(ctx context.Context, audit *domain.RateAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	c := *audit
	tx.audits = append(tx.audits, &c)
	return nil
}

func (tx *memTx) DisputeForUpdate(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	if d, ok := tx.disputes[disputeID]; ok {
		return cloneDispute(d), nil
	}
	d, ok := tx.s.disputes[disputeID]
	if !ok {
		return nil, domain.ErrDisputeNotFound
	}
	return cloneDispute(d), nil
}

func (tx *memTx) CreateDispute(ctx context.Context, dispute *domain.Dispute) error {
	tx.disputes[dispute.ID] = cloneDispute(dispute)
	return nil
}

func (tx *memTx) UpdateDispute(ctx context.Context, dispute *domain.Dispute) error {
	if _, err := tx.DisputeForUpdate(ctx, dispute.ID); err != nil {
		return err
	}
	tx.disputes[dispute.ID] = cloneDispute(dispute)
	return nil
}

func (tx *memTx) HasDisputeMessage(ctx context.Context, disputeID, senderID, contains string) (bool, error) {
	for _, list := range [][]*domain.DisputeMessage{tx.s.messages, tx.messages} {
		for _, m := range list {
			if m.DisputeID == disputeID && m.SenderID == senderID && containsFold(m.Message, contains) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (tx *memTx) CreateDisputeMessage(ctx context.Context, msg *domain.DisputeMessage) error {
	c := *msg
	tx.messages = append(tx.messages, &c)
	return nil
}

func (tx *memTx) SetDealStatus(ctx context.Context, dealID string, status domain.DealStatus) error {
	if _, ok := tx.s.deals[dealID]; !ok {
		return domain.ErrDealNotFound
	}
	tx.deals[dealID] = status
	return nil
}
