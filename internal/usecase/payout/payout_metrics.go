package payout

import (
	"errors"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

// recordPayoutCreatedMetrics - вызывается при создании выплаты
func (uc *DefaultPayoutUsecase) recordPayoutCreatedMetrics(p *domain.Payout) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordPayoutCreated(p.MerchantID, p.Amount.InexactFloat64())
}

// recordTransitionMetrics - после каждого зафиксированного перехода
func (uc *DefaultPayoutUsecase) recordTransitionMetrics(operation string, from domain.PayoutStatus, p *domain.Payout) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.RecordTransition(operation, string(from), string(p.Status))

	switch p.Status {
	case domain.PayoutCompleted:
		uc.Metrics.RecordPayoutCompleted(
			p.MerchantID,
			p.TraderID,
			p.Amount.InexactFloat64(),
			p.ProfitAmount.InexactFloat64(),
		)
		if p.CompletedAt != nil && !p.CreatedAt.IsZero() {
			uc.Metrics.RecordProcessingDuration(string(p.Status), p.CompletedAt.Sub(p.CreatedAt).Seconds())
		}
	case domain.PayoutCancelled:
		if p.CancelledAt != nil && !p.CreatedAt.IsZero() {
			uc.Metrics.RecordProcessingDuration(string(p.Status), p.CancelledAt.Sub(p.CreatedAt).Seconds())
		}
	case domain.PayoutExpired:
		uc.Metrics.RecordExpired(string(from))
	}
}

func (uc *DefaultPayoutUsecase) recordOperationError(operation string, err error) {
	if uc.Metrics == nil || err == nil {
		return
	}
	uc.Metrics.RecordOperationError(operation, errorType(err))
}

// errorType - метка для метрик, без id и сумм из текста ошибки
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStaleState):
		return "stale_state"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, domain.ErrPayoutExpired):
		return "expired"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
