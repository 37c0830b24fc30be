package memory

import (
	"slices"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func clonePayout(p *domain.Payout) *domain.Payout {
	c := *p
	c.PreviousTraderIDs = slices.Clone(p.PreviousTraderIDs)
	c.BlacklistedTraderIDs = slices.Clone(p.BlacklistedTraderIDs)
	c.ProofFiles = slices.Clone(p.ProofFiles)
	c.DisputeFiles = slices.Clone(p.DisputeFiles)
	c.AcceptedAt = cloneTime(p.AcceptedAt)
	c.ConfirmedAt = cloneTime(p.ConfirmedAt)
	c.CompletedAt = cloneTime(p.CompletedAt)
	c.CancelledAt = cloneTime(p.CancelledAt)
	c.DisputedAt = cloneTime(p.DisputedAt)
	c.NotifiedAt = cloneTime(p.NotifiedAt)
	return &c
}

func clonePayouts(in []*domain.Payout) []*domain.Payout {
	out := make([]*domain.Payout, len(in))
	for i, p := range in {
		out[i] = clonePayout(p)
	}
	return out
}

func cloneTrader(t *domain.Trader) *domain.Trader {
	c := *t
	if t.PayoutFilters != nil {
		f := *t.PayoutFilters
		f.Banks = slices.Clone(t.PayoutFilters.Banks)
		c.PayoutFilters = &f
	}
	return &c
}

func cloneDispute(d *domain.Dispute) *domain.Dispute {
	c := *d
	c.ResolvedAt = cloneTime(d.ResolvedAt)
	return &c
}
