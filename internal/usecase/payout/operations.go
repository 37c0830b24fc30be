package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

////////////////////// Safe payout operations //////////////////////

// applyFunc меняет выплату (и при необходимости балансы) внутри транзакции
// и возвращает событие, которое уйдёт мерчанту и подписчикам после коммита.
type applyFunc func(tx domain.LedgerTx, p *domain.Payout) (domain.PayoutEvent, error)

// commitThenFail - изменение нужно закоммитить, но вызывающему вернуть ошибку
// (истёкшая выплата при попытке принять)
type commitThenFail struct {
	err error
}

func (c *commitThenFail) Error() string { return c.err.Error() }
func (c *commitThenFail) Unwrap() error { return c.err }

type transitionResult struct {
	payout *domain.Payout
	from   domain.PayoutStatus
	event  domain.PayoutEvent
}

// transition - базовая функция для всех операций с выплатой:
// блокируем строку, применяем изменения, пишем с условием на исходное состояние.
func (uc *DefaultPayoutUsecase) transition(ctx context.Context, operation, payoutID string, apply applyFunc) (*domain.Payout, error) {
	var (
		res     transitionResult
		lateErr error
	)

	err := uc.Ledger.WithinTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		res, lateErr, err = uc.applyInTx(ctx, tx, payoutID, apply)
		return err
	})
	if err != nil {
		uc.recordOperationError(operation, err)
		return nil, fmt.Errorf("%s payout %s: %w", operation, payoutID, err)
	}

	uc.afterCommit(ctx, operation, res)
	if lateErr != nil {
		uc.recordOperationError(operation, lateErr)
		return res.payout, fmt.Errorf("%s payout %s: %w", operation, payoutID, lateErr)
	}
	return res.payout, nil
}

// applyInTx - общая часть для transition и для каскадов из споров,
// которые уже находятся внутри своей транзакции
func (uc *DefaultPayoutUsecase) applyInTx(ctx context.Context, tx domain.LedgerTx, payoutID string, apply applyFunc) (transitionResult, error, error) {
	p, err := tx.PayoutForUpdate(ctx, payoutID)
	if err != nil {
		return transitionResult{}, nil, err
	}
	from := p.Status
	guard := domain.GuardOf(p)

	var late error
	event, err := apply(tx, p)
	if err != nil {
		var ctf *commitThenFail
		if !errors.As(err, &ctf) {
			return transitionResult{}, nil, err
		}
		late = ctf.err
	}

	if err := tx.UpdatePayout(ctx, p, guard); err != nil {
		return transitionResult{}, nil, err
	}
	return transitionResult{payout: p, from: from, event: event}, late, nil
}

// afterCommit - некритичные операции: метрики, вебхук, realtime.
// Ошибки только логируются, переход уже зафиксирован.
func (uc *DefaultPayoutUsecase) afterCommit(ctx context.Context, operation string, res transitionResult) {
	p := res.payout
	if p == nil {
		return
	}

	uc.Logger.Info("payout transition",
		"operation", operation,
		"payout_id", p.ID,
		"from", res.from,
		"to", p.Status,
		"trader_id", p.TraderID,
	)
	uc.recordTransitionMetrics(operation, res.from, p)

	if res.event == "" {
		return
	}

	// Вебхук сам уходит в фон с ретраями
	if uc.Webhooks != nil && p.WebhookURL != "" {
		uc.Webhooks.SendStatusWebhook(context.WithoutCancel(ctx), p, res.event)
	}

	if uc.Broadcaster != nil {
		go func(p *domain.Payout, event domain.PayoutEvent) {
			bctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := uc.Broadcaster.BroadcastUpdate(bctx, p.ID, event, p, p.MerchantID, p.TraderID); err != nil {
				uc.Logger.Error("failed to broadcast payout update", "payout_id", p.ID, "event", event, "error", err)
				if uc.Metrics != nil {
					uc.Metrics.RecordNotificationFailed("broadcast")
				}
			}
		}(p, res.event)
	}
}

func (uc *DefaultPayoutUsecase) processingWindow(p *domain.Payout) time.Duration {
	if p.ProcessingMinutes <= 0 {
		return time.Duration(uc.Config.DefaultProcessingMinutes) * time.Minute
	}
	return p.ProcessingWindow()
}

func requireTrader(p *domain.Payout, traderID string) error {
	if p.TraderID != traderID {
		return fmt.Errorf("%w: payout is not held by trader %s", domain.ErrUnauthorized, traderID)
	}
	return nil
}

func requireMerchant(p *domain.Payout, merchantID string) error {
	if p.MerchantID != merchantID {
		return fmt.Errorf("%w: payout belongs to another merchant", domain.ErrUnauthorized)
	}
	return nil
}
