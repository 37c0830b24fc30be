package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

// reserve замораживает Total выплаты на балансе трейдера и переводит её в ACTIVE.
// Размер заморозки запоминается в FrozenAmount: дальнейшая корректировка курса
// или комиссии на уже замороженную сумму не влияет.
func (uc *DefaultPayoutUsecase) reserve(ctx context.Context, tx domain.LedgerTx, p *domain.Payout, trader *domain.Trader, now time.Time) error {
	required := p.Total
	if trader.BalanceSettlement.LessThan(required) {
		return &domain.InsufficientBalanceError{
			Required:  required,
			Available: trader.BalanceSettlement,
		}
	}

	active, err := tx.CountActivePayouts(ctx, trader.ID)
	if err != nil {
		return fmt.Errorf("count active payouts: %w", err)
	}
	// выплата, уже закреплённая за этим трейдером, в счётчике учтена
	if p.TraderID == trader.ID {
		active--
	}
	if active >= int64(trader.MaxSimultaneousPayouts) {
		return fmt.Errorf("%w: %d of %d", domain.ErrLimitExceeded, active, trader.MaxSimultaneousPayouts)
	}

	trader.BalanceSettlement = trader.BalanceSettlement.Sub(required)
	trader.FrozenSettlement = trader.FrozenSettlement.Add(required)
	if err := tx.UpdateTraderBalances(ctx, trader); err != nil {
		return fmt.Errorf("update trader balances: %w", err)
	}

	p.TraderID = trader.ID
	p.FrozenAmount = required
	p.SumToWriteOffAsset = p.TotalAsset
	p.Status = domain.PayoutActive
	p.AcceptedAt = &now
	p.ExpireAt = now.Add(uc.processingWindow(p))
	return nil
}

// release возвращает замороженную при принятии сумму на баланс трейдера.
func (uc *DefaultPayoutUsecase) release(ctx context.Context, tx domain.LedgerTx, p *domain.Payout) error {
	if !p.IsAssigned() || !p.FrozenAmount.IsPositive() {
		return nil
	}
	trader, err := tx.TraderForUpdate(ctx, p.TraderID)
	if err != nil {
		return err
	}

	amount := p.FrozenAmount
	if trader.FrozenSettlement.LessThan(amount) {
		uc.Logger.Error("frozen balance is below payout reservation",
			"payout_id", p.ID,
			"trader_id", trader.ID,
			"frozen", trader.FrozenSettlement,
			"reservation", amount,
		)
		amount = trader.FrozenSettlement
	}
	trader.FrozenSettlement = trader.FrozenSettlement.Sub(amount)
	trader.BalanceSettlement = trader.BalanceSettlement.Add(amount)
	if err := tx.UpdateTraderBalances(ctx, trader); err != nil {
		return fmt.Errorf("update trader balances: %w", err)
	}
	p.FrozenAmount = decimal.Zero
	return nil
}

// settle списывает заморозку (рубли потрачены трейдером) и начисляет USDT и прибыль.
func (uc *DefaultPayoutUsecase) settle(ctx context.Context, tx domain.LedgerTx, p *domain.Payout, now time.Time) error {
	if !p.IsAssigned() {
		return fmt.Errorf("%w: payout has no trader", domain.ErrInvalidState)
	}
	trader, err := tx.TraderForUpdate(ctx, p.TraderID)
	if err != nil {
		return err
	}

	consumed := p.FrozenAmount
	if trader.FrozenSettlement.LessThan(consumed) {
		uc.Logger.Error("frozen balance is below payout reservation on completion",
			"payout_id", p.ID,
			"trader_id", trader.ID,
			"frozen", trader.FrozenSettlement,
			"reservation", consumed,
		)
		consumed = trader.FrozenSettlement
	}
	trader.FrozenSettlement = trader.FrozenSettlement.Sub(consumed)
	trader.BalanceSettlementAsset = trader.BalanceSettlementAsset.Add(p.SumToWriteOffAsset)
	trader.ProfitFromPayouts = trader.ProfitFromPayouts.Add(p.ProfitAmount)
	if err := tx.UpdateTraderBalances(ctx, trader); err != nil {
		return fmt.Errorf("update trader balances: %w", err)
	}

	p.ProfitBanked = p.ProfitAmount
	p.Status = domain.PayoutCompleted
	p.CompletedAt = &now
	return nil
}

// recoverProfit списывает amount с трейдера по очереди: прибыль с выплат,
// баланс USDT, депозит. Ни одно поле не уходит в минус; возвращает
// то, что списать не удалось.
func recoverProfit(trader *domain.Trader, amount decimal.Decimal) decimal.Decimal {
	remaining := amount
	for _, pool := range []*decimal.Decimal{
		&trader.ProfitFromPayouts,
		&trader.BalanceSettlementAsset,
		&trader.Deposit,
	} {
		if !remaining.IsPositive() {
			break
		}
		if !pool.IsPositive() {
			continue
		}
		take := decimal.Min(*pool, remaining)
		*pool = pool.Sub(take)
		remaining = remaining.Sub(take)
	}
	return remaining
}
