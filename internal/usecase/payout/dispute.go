package payout

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/jaevor/go-nanoid"
)

// timeoutMarker - по этой подстроке ищем уже отправленное системное сообщение
const timeoutMarker = "Время на ответ истекло"

type OpenDisputeInput struct {
	PayoutID   string
	MerchantID string
	Message    string
	Files      []string
}

type ResolveDisputeInput struct {
	DisputeID string
	// RESOLVED_SUCCESS - в пользу мерчанта, RESOLVED_FAIL - в пользу трейдера
	Outcome    domain.DisputeStatus
	Resolution string
	ActorID    string
	// SystemMessage - автозакрытие по таймауту, в спор пишется системное сообщение
	SystemMessage bool
}

// OpenDispute - мерчант не согласен с подтверждением трейдера.
// Заморозка остаётся на трейдере до решения спора.
func (uc *DefaultPayoutUsecase) OpenDispute(ctx context.Context, input *OpenDisputeInput) (*domain.Payout, *domain.Dispute, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, nil, err
	}

	var dispute *domain.Dispute
	payout, err := uc.transition(ctx, "dispute", input.PayoutID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
		if err := requireMerchant(p, input.MerchantID); err != nil {
			return "", err
		}
		if p.Status != domain.PayoutChecking {
			return "", domain.InvalidState("dispute", p.Status)
		}

		now := uc.now()
		dispute = &domain.Dispute{
			ID:         idGenerator(),
			Kind:       domain.DisputeWithdrawal,
			SubjectID:  p.ID,
			MerchantID: p.MerchantID,
			TraderID:   p.TraderID,
			Status:     domain.DisputeOpen,
			CreatedAt:  now,
		}
		if err := tx.CreateDispute(ctx, dispute); err != nil {
			return "", fmt.Errorf("create dispute: %w", err)
		}
		if input.Message != "" {
			if err := tx.CreateDisputeMessage(ctx, &domain.DisputeMessage{
				ID:         idGenerator(),
				DisputeID:  dispute.ID,
				SenderID:   p.MerchantID,
				SenderType: domain.SenderMerchant,
				Message:    input.Message,
				CreatedAt:  now,
			}); err != nil {
				return "", fmt.Errorf("create dispute message: %w", err)
			}
		}

		p.Status = domain.PayoutDisputed
		p.DisputedAt = &now
		p.DisputeMessage = input.Message
		if len(input.Files) > 0 {
			p.DisputeFiles = slices.Clone(input.Files)
		}
		return domain.EventPayoutDisputed, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payout, dispute, nil
}

// ResolveDispute закрывает спор и переносит решение на выплату или сделку
// в той же транзакции.
func (uc *DefaultPayoutUsecase) ResolveDispute(ctx context.Context, input *ResolveDisputeInput) (*domain.Dispute, error) {
	if input.Outcome != domain.DisputeResolvedSuccess && input.Outcome != domain.DisputeResolvedFail {
		return nil, domain.NewValidationError("outcome", "must be RESOLVED_SUCCESS or RESOLVED_FAIL")
	}
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}

	var (
		dispute *domain.Dispute
		cascade transitionResult
	)
	err = uc.Ledger.WithinTx(ctx, func(tx domain.LedgerTx) error {
		d, err := tx.DisputeForUpdate(ctx, input.DisputeID)
		if err != nil {
			return err
		}
		if !d.Status.IsActive() {
			return fmt.Errorf("%w: dispute is %s", domain.ErrInvalidState, d.Status)
		}

		now := uc.now()
		d.Status = input.Outcome
		d.Resolution = input.Resolution
		d.ResolvedAt = &now
		if err := tx.UpdateDispute(ctx, d); err != nil {
			return fmt.Errorf("update dispute: %w", err)
		}

		if input.SystemMessage {
			sent, err := tx.HasDisputeMessage(ctx, d.ID, domain.SenderSystem, timeoutMarker)
			if err != nil {
				return fmt.Errorf("check dispute messages: %w", err)
			}
			if !sent {
				if err := tx.CreateDisputeMessage(ctx, &domain.DisputeMessage{
					ID:         idGenerator(),
					DisputeID:  d.ID,
					SenderID:   domain.SenderSystem,
					SenderType: domain.SenderAdmin,
					Message:    domain.DisputeTimeoutMessage,
					CreatedAt:  now,
				}); err != nil {
					return fmt.Errorf("create system message: %w", err)
				}
			}
		}

		switch d.Kind {
		case domain.DisputeWithdrawal:
			res, _, err := uc.applyInTx(ctx, tx, d.SubjectID, func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error) {
				return uc.applyDisputeOutcome(ctx, tx, p, input.Outcome, now)
			})
			if err != nil {
				return err
			}
			cascade = res
		case domain.DisputeDeal:
			status := domain.DealCompleted
			if input.Outcome == domain.DisputeResolvedFail {
				status = domain.DealCancelled
			}
			if err := tx.SetDealStatus(ctx, d.SubjectID, status); err != nil {
				return fmt.Errorf("set deal status: %w", err)
			}
		}

		dispute = d
		return nil
	})
	if err != nil {
		uc.recordOperationError("resolve_dispute", err)
		return nil, fmt.Errorf("resolve dispute %s: %w", input.DisputeID, err)
	}

	uc.Logger.Info("dispute resolved",
		"dispute_id", dispute.ID,
		"kind", dispute.Kind,
		"outcome", dispute.Status,
		"actor_id", input.ActorID,
	)
	uc.afterCommit(ctx, "resolve_dispute", cascade)
	return dispute, nil
}

func (uc *DefaultPayoutUsecase) applyDisputeOutcome(ctx context.Context, tx domain.LedgerTx, p *domain.Payout, outcome domain.DisputeStatus, now time.Time) (domain.PayoutEvent, error) {
	if p.Status != domain.PayoutDisputed {
		return "", domain.InvalidState("resolve dispute for", p.Status)
	}
	if outcome == domain.DisputeResolvedFail {
		// трейдер прав: выплата считается исполненной
		if err := uc.settle(ctx, tx, p, now); err != nil {
			return "", err
		}
		return domain.EventPayoutCompleted, nil
	}

	if err := uc.release(ctx, tx, p); err != nil {
		return "", err
	}
	p.Status = domain.PayoutRejected
	p.CancelledAt = &now
	return domain.EventPayoutRejected, nil
}
