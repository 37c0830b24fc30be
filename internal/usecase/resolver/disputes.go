package resolver

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/payout"
)

const autoResolution = "auto-resolved: response timeout"

// ResolveExpiredDisputes закрывает споры, на которые не ответили в срок смены.
// Решение всегда в пользу мерчанта.
func (r *Resolver) ResolveExpiredDisputes(ctx context.Context) (int, error) {
	shifts, err := LoadShiftConfig(ctx, r.configStore, r.cfg.Shifts)
	if err != nil {
		// читаем с дефолтами, свип не пропускаем
		r.logger.Warn("using default shift config", "error", err)
	}

	active, err := r.disputes.FindActiveDisputes(ctx)
	if err != nil {
		return 0, fmt.Errorf("find active disputes: %w", err)
	}

	now := r.now()
	count := 0
	for _, d := range active {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		deadline := shifts.Deadline(d.CreatedAt, r.cfg.Location)
		if !now.After(deadline) {
			continue
		}

		_, err := r.ops.ResolveDispute(ctx, &payout.ResolveDisputeInput{
			DisputeID:     d.ID,
			Outcome:       domain.DisputeResolvedSuccess,
			Resolution:    autoResolution,
			ActorID:       domain.SenderSystem,
			SystemMessage: true,
		})
		if err != nil {
			r.logger.Error("failed to auto-resolve dispute", "dispute_id", d.ID, "kind", d.Kind, "error", err)
			continue
		}
		count++
		if r.metrics != nil {
			r.metrics.RecordDisputeAutoResolved(string(d.Kind))
		}
		r.logger.Info("dispute auto-resolved", "dispute_id", d.ID, "kind", d.Kind, "deadline", deadline)
	}
	return count, nil
}
