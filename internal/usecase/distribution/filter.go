package distribution

import (
	"slices"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// SkipReason - первое правило, которое трейдер не прошёл
type SkipReason string

const (
	SkipNoRelation      SkipReason = "no_relation"
	SkipPayoutsDisabled SkipReason = "payouts_disabled"
	SkipLimit           SkipReason = "limit"
	SkipBalance         SkipReason = "balance"
	SkipExcluded        SkipReason = "excluded"
	SkipTrafficType     SkipReason = "traffic_type"
	SkipBank            SkipReason = "bank"
	SkipMaxAmount       SkipReason = "max_amount"
)

type FilterResult struct {
	Eligible []*domain.Candidate
	Skipped  map[string]SkipReason
}

// Relations - связи мерчант-трейдер: merchantID -> traderID -> связь
type Relations map[string]map[string]*domain.MerchantTrader

func NewRelations(list []*domain.MerchantTrader) Relations {
	rels := make(Relations)
	for _, rel := range list {
		byTrader, ok := rels[rel.MerchantID]
		if !ok {
			byTrader = make(map[string]*domain.MerchantTrader)
			rels[rel.MerchantID] = byTrader
		}
		byTrader[rel.TraderID] = rel
	}
	return rels
}

func (r Relations) Get(merchantID, traderID string) *domain.MerchantTrader {
	return r[merchantID][traderID]
}

// FilterEligible оставляет трейдеров, которым можно отдать выплату.
// Порядок кандидатов сохраняется. Правила идут от дешёвых к дорогим,
// причиной отказа считается первое непройденное.
func FilterEligible(p *domain.Payout, candidates []*domain.Candidate, rels Relations) FilterResult {
	res := FilterResult{Skipped: make(map[string]SkipReason)}
	for _, c := range candidates {
		if reason, ok := checkCandidate(p, c, rels); !ok {
			res.Skipped[c.Trader.ID] = reason
			continue
		}
		res.Eligible = append(res.Eligible, c)
	}
	return res
}

func checkCandidate(p *domain.Payout, c *domain.Candidate, rels Relations) (SkipReason, bool) {
	t := c.Trader

	rel := rels.Get(p.MerchantID, t.ID)
	if rel == nil {
		return SkipNoRelation, false
	}
	if !rel.PayoutsEnabled {
		return SkipPayoutsDisabled, false
	}

	if c.ActivePayouts >= int64(t.MaxSimultaneousPayouts) {
		return SkipLimit, false
	}
	if t.BalanceSettlement.LessThan(p.Amount) {
		return SkipBalance, false
	}
	if p.IsExcluded(t.ID) {
		return SkipExcluded, false
	}

	if f := t.PayoutFilters; f != nil {
		if !f.TrafficType.Accepts(p.TrafficType()) {
			return SkipTrafficType, false
		}
		if len(f.Banks) > 0 && !bankAllowed(f.Banks, p.Bank) {
			return SkipBank, false
		}
		if f.MaxPayoutAmount.IsPositive() && p.Amount.GreaterThan(f.MaxPayoutAmount) {
			return SkipMaxAmount, false
		}
	}
	return "", true
}

func bankAllowed(allowed []string, bank string) bool {
	code := domain.CanonicalBank(bank)
	return slices.ContainsFunc(allowed, func(b string) bool {
		return domain.CanonicalBank(b) == code
	})
}
