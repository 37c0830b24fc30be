// Package memory - хранилище в памяти процесса для локального запуска (storage.driver: memory)
// и тестов. Транзакции сериализуются одним мьютексом.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	payouts   map[string]*domain.Payout
	traders   map[string]*domain.Trader
	merchants map[string]*domain.Merchant
	relations map[string]*domain.MerchantTrader
	disputes  map[string]*domain.Dispute
	messages  []*domain.DisputeMessage
	deals     map[string]*domain.Deal
	audits    []*domain.RateAudit
	config    map[string]string

	seq int64
}

func NewStore() *Store {
	return &Store{
		payouts:   make(map[string]*domain.Payout),
		traders:   make(map[string]*domain.Trader),
		merchants: make(map[string]*domain.Merchant),
		relations: make(map[string]*domain.MerchantTrader),
		disputes:  make(map[string]*domain.Dispute),
		deals:     make(map[string]*domain.Deal),
		config:    make(map[string]string),
	}
}

func relationKey(merchantID, traderID string) string {
	return merchantID + "|" + traderID
}

////////////////////// Seeding //////////////////////

func (s *Store) PutTrader(t *domain.Trader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneTrader(t)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().Add(time.Duration(len(s.traders)) * time.Microsecond)
	}
	s.traders[c.ID] = c
}

func (s *Store) PutMerchant(m *domain.Merchant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.merchants[m.ID] = &c
}

func (s *Store) PutMerchantTrader(rel *domain.MerchantTrader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *rel
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.relations[relationKey(rel.MerchantID, rel.TraderID)] = &c
}

func (s *Store) PutDeal(deal *domain.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *deal
	s.deals[deal.ID] = &c
}

func (s *Store) PutDispute(dispute *domain.Dispute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disputes[dispute.ID] = cloneDispute(dispute)
}

func (s *Store) Deal(dealID string) *domain.Deal {
	s.mu.Lock()
	defer s.mu.Unlock()
	deal, ok := s.deals[dealID]
	if !ok {
		return nil
	}
	c := *deal
	return &c
}

func (s *Store) DisputeMessages(disputeID string) []*domain.DisputeMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.DisputeMessage
	for _, m := range s.messages {
		if m.DisputeID == disputeID {
			c := *m
			out = append(out, &c)
		}
	}
	return out
}

func (s *Store) RateAudits(payoutID string) []*domain.RateAudit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.RateAudit
	for _, a := range s.audits {
		if a.PayoutID == payoutID {
			c := *a
			out = append(out, &c)
		}
	}
	return out
}

////////////////////// PayoutRepository //////////////////////

func (s *Store) CreatePayout(ctx context.Context, payout *domain.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payout.ID == "" {
		payout.ID = uuid.New().String()
	}
	s.seq++
	payout.NumericID = s.seq
	if payout.CreatedAt.IsZero() {
		payout.CreatedAt = time.Now()
	}
	payout.UpdatedAt = payout.CreatedAt
	s.payouts[payout.ID] = clonePayout(payout)
	return nil
}

func (s *Store) GetPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutID]
	if !ok {
		return nil, domain.ErrPayoutNotFound
	}
	return clonePayout(p), nil
}

func (s *Store) GetPayouts(ctx context.Context, filter domain.PayoutFilter) ([]*domain.Payout, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Payout
	for _, p := range s.payouts {
		if filter.MerchantID != "" && p.MerchantID != filter.MerchantID {
			continue
		}
		if filter.TraderID != "" && p.TraderID != filter.TraderID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if filter.Limit > 0 {
		page := max(filter.Page, 1)
		from := min((page-1)*filter.Limit, len(matched))
		to := min(from+filter.Limit, len(matched))
		matched = matched[from:to]
	}
	return clonePayouts(matched), total, nil
}

func (s *Store) FindUnassignedPayouts(ctx context.Context, now time.Time, limit int) ([]*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectPayouts(limit, func(p *domain.Payout) bool {
		return p.Status == domain.PayoutCreated && p.TraderID == "" && p.ExpireAt.After(now)
	}), nil
}

func (s *Store) FindExpiredPayouts(ctx context.Context, now time.Time, statuses []domain.PayoutStatus, limit int) ([]*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectPayouts(limit, func(p *domain.Payout) bool {
		return slices.Contains(statuses, p.Status) && p.ExpireAt.Before(now)
	}), nil
}

func (s *Store) FindUnnotifiedPayouts(ctx context.Context, limit int) ([]*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectPayouts(limit, func(p *domain.Payout) bool {
		if p.TraderID == "" || p.NotifiedAt != nil {
			return false
		}
		return p.Status == domain.PayoutCreated || p.Status == domain.PayoutActive
	}), nil
}

func (s *Store) MarkNotified(ctx context.Context, payoutID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payouts[payoutID]
	if !ok {
		return domain.ErrPayoutNotFound
	}
	p.NotifiedAt = &at
	return nil
}

// selectPayouts - по возрастанию created_at, как ORDER BY в postgres
func (s *Store) selectPayouts(limit int, match func(p *domain.Payout) bool) []*domain.Payout {
	var out []*domain.Payout
	for _, p := range s.payouts {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].NumericID < out[j].NumericID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return clonePayouts(out)
}

////////////////////// TraderRepository //////////////////////

func (s *Store) GetTraderByID(ctx context.Context, traderID string) (*domain.Trader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traders[traderID]
	if !ok {
		return nil, domain.ErrTraderNotFound
	}
	return cloneTrader(t), nil
}

func (s *Store) FindCandidates(ctx context.Context) ([]*domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Candidate
	for _, t := range s.traders {
		if t.Banned || !t.TrafficEnabled {
			continue
		}
		out = append(out, &domain.Candidate{
			Trader:        cloneTrader(t),
			ActivePayouts: s.countActive(t.ID, nil),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Trader, out[j].Trader
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) FindMerchantTraders(ctx context.Context, merchantIDs []string) ([]*domain.MerchantTrader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.MerchantTrader
	for _, rel := range s.relations {
		if slices.Contains(merchantIDs, rel.MerchantID) {
			c := *rel
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) countActive(traderID string, pending map[string]*domain.Payout) int64 {
	var n int64
	seen := make(map[string]struct{}, len(pending))
	count := func(p *domain.Payout) {
		if p.TraderID != traderID {
			return
		}
		switch p.Status {
		case domain.PayoutCreated, domain.PayoutActive, domain.PayoutChecking:
			n++
		}
	}
	for id, p := range pending {
		seen[id] = struct{}{}
		count(p)
	}
	for id, p := range s.payouts {
		if _, ok := seen[id]; ok {
			continue
		}
		count(p)
	}
	return n
}

////////////////////// MerchantRepository //////////////////////

func (s *Store) GetMerchantByID(ctx context.Context, merchantID string) (*domain.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.merchants[merchantID]
	if !ok {
		return nil, domain.ErrMerchantNotFound
	}
	c := *m
	return &c, nil
}

////////////////////// DisputeRepository //////////////////////

func (s *Store) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[disputeID]
	if !ok {
		return nil, domain.ErrDisputeNotFound
	}
	return cloneDispute(d), nil
}

func (s *Store) FindActiveDisputes(ctx context.Context) ([]*domain.Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Dispute
	for _, d := range s.disputes {
		if d.Status.IsActive() {
			out = append(out, cloneDispute(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

////////////////////// ConfigStore //////////////////////

func (s *Store) GetValues(ctx context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.config[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[key] = value
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
