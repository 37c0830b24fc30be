package payout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRateProvider is a mock implementation of domain.RateProvider
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) GetRate(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockWebhookDispatcher is a mock implementation of domain.WebhookDispatcher
type MockWebhookDispatcher struct {
	mock.Mock
}

func (m *MockWebhookDispatcher) SendStatusWebhook(ctx context.Context, payout *domain.Payout, event domain.PayoutEvent) {
	m.Called(ctx, payout, event)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store *memory.Store
	uc    *DefaultPayoutUsecase
	clock *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &testClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	uc := NewDefaultPayoutUsecase(store, store, nil, nil, nil, nil, nil, Config{
		DefaultFeePercent:        decimal.Zero,
		DefaultProcessingMinutes: 15,
	}).WithClock(clock.Now)

	store.PutMerchant(&domain.Merchant{ID: "merchant-1", Name: "shop"})
	return &fixture{store: store, uc: uc, clock: clock}
}

func (f *fixture) addTrader(t *testing.T, id string, balance int64) {
	t.Helper()
	f.store.PutTrader(&domain.Trader{
		ID:                     id,
		BalanceSettlement:      decimal.NewFromInt(balance),
		MaxSimultaneousPayouts: 3,
		TrafficEnabled:         true,
		CreatedAt:              f.clock.Now(),
	})
	f.store.PutMerchantTrader(&domain.MerchantTrader{
		MerchantID:     "merchant-1",
		TraderID:       id,
		PayoutsEnabled: true,
	})
}

func (f *fixture) trader(t *testing.T, id string) *domain.Trader {
	t.Helper()
	tr, err := f.store.GetTraderByID(context.Background(), id)
	require.NoError(t, err)
	return tr
}

func (f *fixture) payout(t *testing.T, id string) *domain.Payout {
	t.Helper()
	p, err := f.store.GetPayoutByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// createScenarioPayout: amount=10000, merchantRate=100, rateDelta=2, fee=1.5
func (f *fixture) createScenarioPayout(t *testing.T) *domain.Payout {
	t.Helper()
	fee := dec("1.5")
	p, err := f.uc.CreatePayout(context.Background(), &CreatePayoutInput{
		MerchantID:   "merchant-1",
		ExternalID:   "ext-1",
		Amount:       decimal.NewFromInt(10000),
		MerchantRate: decimal.NewFromInt(100),
		RateDelta:    decimal.NewFromInt(2),
		FeePercent:   &fee,
		Wallet:       "2200700011112222",
		Bank:         "Т-Банк",
		IsCard:       true,
	})
	require.NoError(t, err)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
