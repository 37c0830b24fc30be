package payout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePayout_Quote(t *testing.T) {
	f := newFixture(t)
	p := f.createScenarioPayout(t)

	assert.Equal(t, domain.PayoutCreated, p.Status)
	assertDec(t, "102", p.Rate)
	assertDec(t, "10150", p.Total)
	assertDec(t, "99.50", p.TotalAsset)
	assertDec(t, "98.03", p.AmountAsset)
	assert.Empty(t, p.TraderID)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), p.ExpireAt)

	stored := f.payout(t, p.ID)
	assert.Equal(t, p.ID, stored.ID)
	assert.NotZero(t, stored.NumericID)
}

func TestCreatePayout_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tooHigh := decimal.NewFromInt(101)

	cases := []struct {
		name  string
		input CreatePayoutInput
		field string
	}{
		{"zero amount", CreatePayoutInput{MerchantID: "merchant-1", Wallet: "w", MerchantRate: dec("100")}, "amount"},
		{"no wallet", CreatePayoutInput{MerchantID: "merchant-1", Amount: dec("10"), MerchantRate: dec("100")}, "wallet"},
		{"delta out of range", CreatePayoutInput{MerchantID: "merchant-1", Wallet: "w", Amount: dec("10"), MerchantRate: dec("100"), RateDelta: dec("20.01")}, "rate_delta"},
		{"fee out of range", CreatePayoutInput{MerchantID: "merchant-1", Wallet: "w", Amount: dec("10"), MerchantRate: dec("100"), FeePercent: &tooHigh}, "fee_percent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreatePayout(ctx, &tc.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreatePayout_UsesRateProvider(t *testing.T) {
	f := newFixture(t)
	rates := new(MockRateProvider)
	rates.On("GetRate", mock.Anything).Return(dec("95.40"), nil).Once()
	f.uc.RateProvider = rates

	p, err := f.uc.CreatePayout(context.Background(), &CreatePayoutInput{
		MerchantID: "merchant-1",
		Amount:     dec("954"),
		Wallet:     "w",
	})
	require.NoError(t, err)
	assertDec(t, "95.40", p.MerchantRate)
	assertDec(t, "10", p.AmountAsset)
	rates.AssertExpectations(t)
}

func TestCreatePayout_RateProviderFailure(t *testing.T) {
	f := newFixture(t)
	rates := new(MockRateProvider)
	rates.On("GetRate", mock.Anything).Return(decimal.Zero, errors.New("provider down"))
	f.uc.RateProvider = rates

	_, err := f.uc.CreatePayout(context.Background(), &CreatePayoutInput{
		MerchantID: "merchant-1",
		Amount:     dec("954"),
		Wallet:     "w",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestFullLifecycle_AcceptConfirmApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)

	p, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutActive, p.Status)
	assertDec(t, "10150", p.FrozenAmount)
	tr := f.trader(t, "trader-1")
	assertDec(t, "39850", tr.BalanceSettlement)
	assertDec(t, "10150", tr.FrozenSettlement)

	p, err = f.uc.ConfirmPayout(ctx, p.ID, "trader-1", []string{"https://files/receipt.pdf"})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutChecking, p.Status)
	assertDec(t, "1.47", p.ProfitAmount)
	assert.Equal(t, []string{"https://files/receipt.pdf"}, p.ProofFiles)

	p, err = f.uc.ApprovePayout(ctx, p.ID, "merchant-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCompleted, p.Status)
	require.NotNil(t, p.CompletedAt)

	tr = f.trader(t, "trader-1")
	assertDec(t, "0", tr.FrozenSettlement)
	assertDec(t, "39850", tr.BalanceSettlement)
	assertDec(t, "99.50", tr.BalanceSettlementAsset)
	assertDec(t, "1.47", tr.ProfitFromPayouts)
}

func TestAcceptThenCancel_RestoresBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)

	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	p, err = f.uc.CancelPayout(ctx, &CancelPayoutInput{
		PayoutID: p.ID,
		TraderID: "trader-1",
		Reason:   "maintenance",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PayoutCreated, p.Status)
	assert.Empty(t, p.TraderID)
	assert.Contains(t, p.PreviousTraderIDs, "trader-1")
	assert.Equal(t, "maintenance", p.CancelReason)
	assert.True(t, p.FrozenAmount.IsZero())
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), p.ExpireAt)

	tr := f.trader(t, "trader-1")
	assertDec(t, "50000", tr.BalanceSettlement)
	assertDec(t, "0", tr.FrozenSettlement)
}

func TestAcceptPayout_ConcurrentTradersOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	traders := []string{"trader-1", "trader-2", "trader-3", "trader-4"}
	for _, id := range traders {
		f.addTrader(t, id, 50000)
	}
	p := f.createScenarioPayout(t)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []string
	)
	for _, id := range traders {
		wg.Add(1)
		go func(traderID string) {
			defer wg.Done()
			if _, err := f.uc.AcceptPayout(ctx, p.ID, traderID); err == nil {
				mu.Lock()
				wins = append(wins, traderID)
				mu.Unlock()
			} else {
				assert.True(t, errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrUnauthorized), err)
			}
		}(id)
	}
	wg.Wait()

	require.Len(t, wins, 1)
	assert.Equal(t, wins[0], f.payout(t, p.ID).TraderID)

	frozen := decimal.Zero
	for _, id := range traders {
		frozen = frozen.Add(f.trader(t, id).FrozenSettlement)
	}
	assertDec(t, "10150", frozen)
}

func TestAcceptPayout_ExpiredFlipsToExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)

	f.clock.Advance(16 * time.Minute)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.ErrorIs(t, err, domain.ErrPayoutExpired)

	assert.Equal(t, domain.PayoutExpired, f.payout(t, p.ID).Status)
	assertDec(t, "50000", f.trader(t, "trader-1").BalanceSettlement)
}

func TestAcceptPayout_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.addTrader(t, "trader-1", 10100)
	p := f.createScenarioPayout(t)

	_, err := f.uc.AcceptPayout(context.Background(), p.ID, "trader-1")
	var ib *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assertDec(t, "10150", ib.Required)
	assertDec(t, "10100", ib.Available)
	assert.True(t, IsCapacityError(err))

	assert.Equal(t, domain.PayoutCreated, f.payout(t, p.ID).Status)
	assertDec(t, "0", f.trader(t, "trader-1").FrozenSettlement)
}

func TestAcceptPayout_LimitExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutTrader(&domain.Trader{
		ID:                     "trader-1",
		BalanceSettlement:      decimal.NewFromInt(100000),
		MaxSimultaneousPayouts: 1,
		TrafficEnabled:         true,
	})
	first := f.createScenarioPayout(t)
	second := f.createScenarioPayout(t)

	_, err := f.uc.AcceptPayout(ctx, first.ID, "trader-1")
	require.NoError(t, err)

	_, err = f.uc.AcceptPayout(ctx, second.ID, "trader-1")
	require.ErrorIs(t, err, domain.ErrLimitExceeded)
	assert.True(t, IsCapacityError(err))
}

func TestAssignThenAccept_CountsClaimOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.PutTrader(&domain.Trader{
		ID:                     "trader-1",
		BalanceSettlement:      decimal.NewFromInt(100000),
		MaxSimultaneousPayouts: 1,
	})
	p := f.createScenarioPayout(t)

	p, err := f.uc.Assign(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCreated, p.Status)
	assert.Equal(t, "trader-1", p.TraderID)
	assertDec(t, "0", f.trader(t, "trader-1").FrozenSettlement)

	_, err = f.uc.AcceptPayout(ctx, p.ID, "trader-2")
	require.ErrorIs(t, err, domain.ErrAlreadyAssigned)

	p, err = f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutActive, p.Status)
}

func TestCancelPayout_ClaimedButNotAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)

	_, err := f.uc.Assign(ctx, p.ID, "trader-1")
	require.NoError(t, err)

	p, err = f.uc.CancelPayout(ctx, &CancelPayoutInput{PayoutID: p.ID, TraderID: "trader-1", Reason: "no bank"})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCreated, p.Status)
	assert.Empty(t, p.TraderID)
	assertDec(t, "50000", f.trader(t, "trader-1").BalanceSettlement)
}

func TestCancelPayout_WrongTrader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)

	_, err = f.uc.CancelPayout(ctx, &CancelPayoutInput{PayoutID: p.ID, TraderID: "trader-2"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestConfirmPayout_FeeOutProfit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	feeOut := dec("1")
	f.store.PutMerchantTrader(&domain.MerchantTrader{
		MerchantID:     "merchant-1",
		TraderID:       "trader-1",
		PayoutsEnabled: true,
		FeeOut:         &feeOut,
	})
	p := f.createScenarioPayout(t)

	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	p, err = f.uc.ConfirmPayout(ctx, p.ID, "trader-1", nil)
	require.NoError(t, err)

	// trunc2(98.03 * 1 / 100)
	assertDec(t, "0.98", p.ProfitAmount)
}

func TestApprovePayout_WrongMerchant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	_, err = f.uc.ConfirmPayout(ctx, p.ID, "trader-1", nil)
	require.NoError(t, err)

	_, err = f.uc.ApprovePayout(ctx, p.ID, "merchant-2")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, domain.PayoutChecking, f.payout(t, p.ID).Status)
}

func TestApprovePayout_NotChecking(t *testing.T) {
	f := newFixture(t)
	p := f.createScenarioPayout(t)

	_, err := f.uc.ApprovePayout(context.Background(), p.ID, "merchant-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancelByMerchant_ReleasesFreeze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)

	p, err = f.uc.CancelByMerchant(ctx, p.ID, "merchant-1", "client changed mind")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCancelled, p.Status)
	require.NotNil(t, p.CancelledAt)

	tr := f.trader(t, "trader-1")
	assertDec(t, "50000", tr.BalanceSettlement)
	assertDec(t, "0", tr.FrozenSettlement)

	_, err = f.uc.CancelByMerchant(ctx, p.ID, "merchant-1", "again")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestForceCancel_FromChecking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	_, err = f.uc.ConfirmPayout(ctx, p.ID, "trader-1", nil)
	require.NoError(t, err)

	p, err = f.uc.ForceCancel(ctx, p.ID, "admin-1", "fraud")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCancelled, p.Status)
	assertDec(t, "50000", f.trader(t, "trader-1").BalanceSettlement)
}

func TestForceComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	_, err = f.uc.ConfirmPayout(ctx, p.ID, "trader-1", nil)
	require.NoError(t, err)

	p, err = f.uc.ForceComplete(ctx, p.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCompleted, p.Status)
	assertDec(t, "99.50", f.trader(t, "trader-1").BalanceSettlementAsset)
}

func TestRejectPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	_, err = f.uc.ConfirmPayout(ctx, p.ID, "trader-1", nil)
	require.NoError(t, err)

	_, err = f.uc.RejectPayout(ctx, p.ID, "admin-1", "bad")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reason", verr.Field)

	p, err = f.uc.RejectPayout(ctx, p.ID, "admin-1", "receipt is fake")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutActive, p.Status)
	assert.True(t, p.ProfitAmount.IsZero())
	assert.Nil(t, p.ConfirmedAt)
	assertDec(t, "10150", p.FrozenAmount)
	assertDec(t, "10150", f.trader(t, "trader-1").FrozenSettlement)

	// у CHECKING прибыль ещё не начислена, списывать нечего
	tr := f.trader(t, "trader-1")
	assert.True(t, tr.ProfitFromPayouts.IsZero())
	assert.True(t, tr.BalanceSettlementAsset.IsZero())
	assert.True(t, tr.Deposit.IsZero())
}

func TestRecoverProfit_Tiers(t *testing.T) {
	cases := []struct {
		name                   string
		profit, asset, deposit string
		amount                 string
		wantProfit, wantAsset  string
		wantDeposit, remainder string
	}{
		{"profit covers", "5", "10", "100", "3", "2", "10", "100", "0"},
		{"spills into asset", "1", "10", "100", "3", "0", "8", "100", "0"},
		{"spills into deposit", "1", "1", "100", "3", "0", "0", "99", "0"},
		{"not enough anywhere", "1", "0", "1", "3", "0", "0", "0", "1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &domain.Trader{
				ProfitFromPayouts:      dec(tc.profit),
				BalanceSettlementAsset: dec(tc.asset),
				Deposit:                dec(tc.deposit),
			}
			rem := recoverProfit(tr, dec(tc.amount))
			assertDec(t, tc.wantProfit, tr.ProfitFromPayouts)
			assertDec(t, tc.wantAsset, tr.BalanceSettlementAsset)
			assertDec(t, tc.wantDeposit, tr.Deposit)
			assertDec(t, tc.remainder, rem)
		})
	}
}

func TestRejectPayout_ReversesBankedProfit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)
	_, err = f.uc.ConfirmPayout(ctx, p.ID, "trader-1", nil)
	require.NoError(t, err)

	// прибыль, уже начисленная по этой выплате
	err = f.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		pp, err := tx.PayoutForUpdate(ctx, p.ID)
		require.NoError(t, err)
		guard := domain.GuardOf(pp)
		pp.ProfitBanked = dec("1.47")
		tr, err := tx.TraderForUpdate(ctx, "trader-1")
		require.NoError(t, err)
		tr.ProfitFromPayouts = dec("1")
		tr.BalanceSettlementAsset = dec("0.20")
		tr.Deposit = dec("10")
		require.NoError(t, tx.UpdateTraderBalances(ctx, tr))
		return tx.UpdatePayout(ctx, pp, guard)
	})
	require.NoError(t, err)

	p, err = f.uc.RejectPayout(ctx, p.ID, "admin-1", "duplicate receipt")
	require.NoError(t, err)
	assert.True(t, p.ProfitBanked.IsZero())

	tr := f.trader(t, "trader-1")
	assertDec(t, "0", tr.ProfitFromPayouts)
	assertDec(t, "0", tr.BalanceSettlementAsset)
	assertDec(t, "9.73", tr.Deposit)
}

func TestAdjustRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)

	p, err = f.uc.AdjustRate(ctx, &AdjustRateInput{
		PayoutID:   p.ID,
		AdminID:    "admin-1",
		RateDelta:  dec("-2"),
		FeePercent: dec("0"),
	})
	require.NoError(t, err)
	assertDec(t, "98", p.Rate)
	assertDec(t, "10000", p.Total)
	assertDec(t, "102.04", p.TotalAsset)
	// уже замороженная сумма не пересчитывается
	assertDec(t, "10150", p.FrozenAmount)

	audits := f.store.RateAudits(p.ID)
	require.Len(t, audits, 1)
	assertDec(t, "2", audits[0].OldRateDelta)
	assertDec(t, "-2", audits[0].NewRateDelta)
	assertDec(t, "1.5", audits[0].OldFeePercent)
	assert.Equal(t, "admin-1", audits[0].AdminID)

	_, err = f.uc.CancelPayout(ctx, &CancelPayoutInput{PayoutID: p.ID, TraderID: "trader-1", Reason: "rate"})
	require.NoError(t, err)
	assertDec(t, "50000", f.trader(t, "trader-1").BalanceSettlement)
}

func TestAdjustRate_Bounds(t *testing.T) {
	f := newFixture(t)
	p := f.createScenarioPayout(t)

	_, err := f.uc.AdjustRate(context.Background(), &AdjustRateInput{PayoutID: p.ID, RateDelta: dec("-21")})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.store.RateAudits(p.ID))
}

func TestExpirePayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTrader(t, "trader-1", 50000)
	p := f.createScenarioPayout(t)
	_, err := f.uc.AcceptPayout(ctx, p.ID, "trader-1")
	require.NoError(t, err)

	_, err = f.uc.ExpirePayout(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	f.clock.Advance(16 * time.Minute)
	p, err = f.uc.ExpirePayout(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutExpired, p.Status)
	tr := f.trader(t, "trader-1")
	assertDec(t, "50000", tr.BalanceSettlement)
	assertDec(t, "0", tr.FrozenSettlement)
}

func TestWebhookSentAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hooks := new(MockWebhookDispatcher)
	f.uc.Webhooks = hooks
	hooks.On("SendStatusWebhook", mock.Anything, mock.AnythingOfType("*domain.Payout"), domain.EventPayoutCreated).Once()
	hooks.On("SendStatusWebhook", mock.Anything, mock.AnythingOfType("*domain.Payout"), domain.EventPayoutCancelled).Once()

	fee := dec("0")
	p, err := f.uc.CreatePayout(ctx, &CreatePayoutInput{
		MerchantID:   "merchant-1",
		Amount:       dec("1000"),
		MerchantRate: dec("100"),
		FeePercent:   &fee,
		Wallet:       "w",
		WebhookURL:   "https://merchant.example/hook",
	})
	require.NoError(t, err)

	// ошибка перехода - вебхука нет
	_, err = f.uc.ApprovePayout(ctx, p.ID, "merchant-1")
	require.Error(t, err)

	_, err = f.uc.CancelByMerchant(ctx, p.ID, "merchant-1", "")
	require.NoError(t, err)
	hooks.AssertExpectations(t)
}
