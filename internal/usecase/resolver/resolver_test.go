package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/payout"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type env struct {
	store    *memory.Store
	uc       *payout.DefaultPayoutUsecase
	resolver *Resolver
	clock    *clock
}

func newEnv(t *testing.T, start time.Time) *env {
	t.Helper()
	store := memory.NewStore()
	c := &clock{now: start}
	uc := payout.NewDefaultPayoutUsecase(store, store, nil, nil, nil, nil, nil, payout.Config{}).WithClock(c.Now)
	r := NewResolver(store, store, store, uc, nil, nil, Config{Location: time.UTC}).WithClock(c.Now)

	store.PutMerchant(&domain.Merchant{ID: "m1"})
	store.PutTrader(&domain.Trader{
		ID:                     "t1",
		BalanceSettlement:      decimal.NewFromInt(50000),
		MaxSimultaneousPayouts: 5,
		TrafficEnabled:         true,
	})
	store.PutMerchantTrader(&domain.MerchantTrader{MerchantID: "m1", TraderID: "t1", PayoutsEnabled: true})
	return &env{store: store, uc: uc, resolver: r, clock: c}
}

func (e *env) createPayout(t *testing.T) *domain.Payout {
	t.Helper()
	fee := decimal.RequireFromString("1.5")
	p, err := e.uc.CreatePayout(context.Background(), &payout.CreatePayoutInput{
		MerchantID:   "m1",
		Amount:       decimal.NewFromInt(10000),
		MerchantRate: decimal.NewFromInt(100),
		RateDelta:    decimal.NewFromInt(2),
		FeePercent:   &fee,
		Wallet:       "2200700011112222",
	})
	require.NoError(t, err)
	return p
}

func (e *env) status(t *testing.T, id string) domain.PayoutStatus {
	t.Helper()
	p, err := e.store.GetPayoutByID(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func (e *env) trader(t *testing.T) *domain.Trader {
	t.Helper()
	tr, err := e.store.GetTraderByID(context.Background(), "t1")
	require.NoError(t, err)
	return tr
}

func TestExpirePayouts_UnassignedCreated(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	e := newEnv(t, start)
	p := e.createPayout(t)

	n, err := e.resolver.ExpirePayouts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	e.clock.Set(start.Add(16 * time.Minute))
	n, err = e.resolver.ExpirePayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.PayoutExpired, e.status(t, p.ID))

	tr := e.trader(t)
	assert.True(t, tr.BalanceSettlement.Equal(decimal.NewFromInt(50000)))
	assert.True(t, tr.FrozenSettlement.IsZero())
}

func TestExpirePayouts_ActiveReleasesAndCheckingWaits(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	e := newEnv(t, start)

	active := e.createPayout(t)
	_, err := e.uc.AcceptPayout(ctx, active.ID, "t1")
	require.NoError(t, err)

	checking := e.createPayout(t)
	_, err = e.uc.AcceptPayout(ctx, checking.ID, "t1")
	require.NoError(t, err)
	_, err = e.uc.ConfirmPayout(ctx, checking.ID, "t1", nil)
	require.NoError(t, err)

	e.clock.Set(start.Add(time.Hour))
	n, err := e.resolver.ExpirePayouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, domain.PayoutExpired, e.status(t, active.ID))
	assert.Equal(t, domain.PayoutChecking, e.status(t, checking.ID))

	tr := e.trader(t)
	assert.True(t, tr.FrozenSettlement.Equal(decimal.NewFromInt(10150)), tr.FrozenSettlement.String())
	assert.True(t, tr.BalanceSettlement.Equal(decimal.NewFromInt(39850)), tr.BalanceSettlement.String())
}

func (e *env) openWithdrawalDispute(t *testing.T) (*domain.Payout, *domain.Dispute) {
	t.Helper()
	ctx := context.Background()
	p := e.createPayout(t)
	_, err := e.uc.AcceptPayout(ctx, p.ID, "t1")
	require.NoError(t, err)
	_, err = e.uc.ConfirmPayout(ctx, p.ID, "t1", []string{"receipt.png"})
	require.NoError(t, err)
	p, d, err := e.uc.OpenDispute(ctx, &payout.OpenDisputeInput{
		PayoutID:   p.ID,
		MerchantID: "m1",
		Message:    "money not received",
	})
	require.NoError(t, err)
	return p, d
}

func TestResolveExpiredDisputes_NightShift(t *testing.T) {
	ctx := context.Background()
	opened := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	e := newEnv(t, opened)
	p, d := e.openWithdrawalDispute(t)
	assert.Equal(t, domain.PayoutDisputed, p.Status)

	e.clock.Set(opened.Add(45 * time.Minute))
	n, err := e.resolver.ResolveExpiredDisputes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, domain.PayoutDisputed, e.status(t, p.ID))

	e.clock.Set(opened.Add(61 * time.Minute))
	n, err = e.resolver.ResolveExpiredDisputes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resolved, err := e.store.GetDisputeByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeResolvedSuccess, resolved.Status)
	assert.Equal(t, domain.PayoutRejected, e.status(t, p.ID))

	tr := e.trader(t)
	assert.True(t, tr.BalanceSettlement.Equal(decimal.NewFromInt(50000)))
	assert.True(t, tr.FrozenSettlement.IsZero())

	var system int
	for _, m := range e.store.DisputeMessages(d.ID) {
		if m.SenderID == domain.SenderSystem {
			system++
			assert.Equal(t, domain.DisputeTimeoutMessage, m.Message)
		}
	}
	assert.Equal(t, 1, system)
}

func TestResolveExpiredDisputes_DayShift(t *testing.T) {
	ctx := context.Background()
	opened := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	e := newEnv(t, opened)
	_, d := e.openWithdrawalDispute(t)

	e.clock.Set(opened.Add(29 * time.Minute))
	n, err := e.resolver.ResolveExpiredDisputes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	e.clock.Set(opened.Add(31 * time.Minute))
	n, err = e.resolver.ResolveExpiredDisputes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resolved, err := e.store.GetDisputeByID(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, resolved.Status.IsActive())
}

func TestResolveExpiredDisputes_ShiftConfigFromStore(t *testing.T) {
	ctx := context.Background()
	opened := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	e := newEnv(t, opened)
	_, d := e.openWithdrawalDispute(t)
	require.NoError(t, e.store.Upsert(ctx, KeyDayShiftTimeoutMinutes, "90"))

	e.clock.Set(opened.Add(45 * time.Minute))
	n, err := e.resolver.ResolveExpiredDisputes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := e.store.GetDisputeByID(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsActive())
}

func TestResolveExpiredDisputes_DealCascadeAndDedupe(t *testing.T) {
	ctx := context.Background()
	opened := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	e := newEnv(t, opened)

	e.store.PutDeal(&domain.Deal{ID: "deal-1", MerchantID: "m1", TraderID: "t1", Amount: decimal.NewFromInt(3000), Status: domain.DealDispute})
	e.store.PutDispute(&domain.Dispute{
		ID:         "dispute-1",
		Kind:       domain.DisputeDeal,
		SubjectID:  "deal-1",
		MerchantID: "m1",
		TraderID:   "t1",
		Status:     domain.DisputeInProgress,
		CreatedAt:  opened,
	})
	// сообщение уже отправлено предыдущей попыткой
	require.NoError(t, e.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		return tx.CreateDisputeMessage(ctx, &domain.DisputeMessage{
			ID:        "msg-1",
			DisputeID: "dispute-1",
			SenderID:  domain.SenderSystem,
			Message:   domain.DisputeTimeoutMessage,
			CreatedAt: opened,
		})
	}))

	e.clock.Set(opened.Add(2 * time.Hour))
	n, err := e.resolver.ResolveExpiredDisputes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, domain.DealCompleted, e.store.Deal("deal-1").Status)
	assert.Len(t, e.store.DisputeMessages("dispute-1"), 1)
}

func TestResolveDispute_TraderWinsCompletesPayout(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	p, d := e.openWithdrawalDispute(t)

	_, err := e.uc.ResolveDispute(ctx, &payout.ResolveDisputeInput{
		DisputeID:  d.ID,
		Outcome:    domain.DisputeResolvedFail,
		Resolution: "receipt verified",
		ActorID:    "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCompleted, e.status(t, p.ID))

	tr := e.trader(t)
	assert.True(t, tr.FrozenSettlement.IsZero())
	assert.True(t, tr.BalanceSettlementAsset.Equal(decimal.RequireFromString("99.50")))
	assert.True(t, tr.ProfitFromPayouts.Equal(decimal.RequireFromString("1.47")))

	// повторно закрыть нельзя
	_, err = e.uc.ResolveDispute(ctx, &payout.ResolveDisputeInput{DisputeID: d.ID, Outcome: domain.DisputeResolvedSuccess})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestShiftConfig_Boundaries(t *testing.T) {
	c := DefaultShiftConfig()
	assert.False(t, c.IsDay(time.Date(2025, 1, 1, 8, 59, 0, 0, time.UTC)))
	assert.True(t, c.IsDay(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, c.IsDay(time.Date(2025, 1, 1, 20, 59, 0, 0, time.UTC)))
	assert.False(t, c.IsDay(time.Date(2025, 1, 1, 21, 0, 0, 0, time.UTC)))

	moscow := time.FixedZone("MSK", 3*60*60)
	created := time.Date(2025, 1, 1, 19, 0, 0, 0, time.UTC) // 22:00 MSK
	assert.Equal(t, created.Add(time.Hour), c.Deadline(created, moscow))
	assert.Equal(t, created.Add(30*time.Minute), c.Deadline(created, time.UTC))
}

func TestShiftConfig_WindowAcrossMidnight(t *testing.T) {
	c := DefaultShiftConfig()
	c.DayStartHour, c.DayEndHour = 22, 6

	at := func(h int) time.Time { return time.Date(2025, 1, 1, h, 0, 0, 0, time.UTC) }
	assert.True(t, c.IsDay(at(22)))
	assert.True(t, c.IsDay(at(23)))
	assert.True(t, c.IsDay(at(0)))
	assert.True(t, c.IsDay(at(5)))
	assert.False(t, c.IsDay(at(6)))
	assert.False(t, c.IsDay(at(12)))
	assert.False(t, c.IsDay(at(21)))

	assert.Equal(t, at(23).Add(c.DayTimeout), c.Deadline(at(23), time.UTC))
	assert.Equal(t, at(12).Add(c.NightTimeout), c.Deadline(at(12), time.UTC))
}
