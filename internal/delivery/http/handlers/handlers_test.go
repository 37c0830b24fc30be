package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/delivery/http/dto"
	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/distribution"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/payout"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRates struct{}

func (stubRates) HealthCheck(ctx context.Context) map[string]bool {
	return map[string]bool{"rapira": true}
}

type testServer struct {
	store  *memory.Store
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	store.PutMerchant(&domain.Merchant{ID: "merchant-1", Name: "shop"})
	store.PutTrader(&domain.Trader{
		ID:                     "trader-1",
		BalanceSettlement:      decimal.NewFromInt(20000),
		MaxSimultaneousPayouts: 3,
		TrafficEnabled:         true,
		CreatedAt:              time.Now(),
	})
	store.PutMerchantTrader(&domain.MerchantTrader{MerchantID: "merchant-1", TraderID: "trader-1", PayoutsEnabled: true})

	uc := payout.NewDefaultPayoutUsecase(store, store, nil, nil, nil, nil, logger, payout.Config{
		DefaultFeePercent:        decimal.Zero,
		DefaultProcessingMinutes: 15,
	})
	h := NewPayoutHandler(uc, store, stubRates{}, logger)
	return &testServer{store: store, router: NewRouter(h, prometheus.NewRegistry())}
}

func (s *testServer) do(t *testing.T, method, path string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

var (
	asMerchant = map[string]string{HeaderMerchantID: "merchant-1"}
	asTrader   = map[string]string{HeaderTraderID: "trader-1"}
	asAdmin    = map[string]string{HeaderAdminID: "admin-1"}
)

func (s *testServer) createPayout(t *testing.T) dto.PayoutResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/merchant/payouts", asMerchant, map[string]any{
		"external_id":   "ext-1",
		"amount":        "10000",
		"merchant_rate": "100",
		"rate_delta":    "2",
		"fee_percent":   "1.5",
		"wallet":        "2200700011112222",
		"bank":          "sber",
		"is_card":       true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.PayoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestCreatePayout(t *testing.T) {
	s := newTestServer(t)
	p := s.createPayout(t)

	assert.Equal(t, string(domain.PayoutCreated), p.Status)
	assert.Equal(t, "merchant-1", p.MerchantID)
	assert.Equal(t, "10000.00", p.Amount)
	assert.Equal(t, "10150.00", p.Total)
	assert.Empty(t, p.TraderID)
}

func TestCreatePayout_MissingActor(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/merchant/payouts", nil, map[string]any{"amount": "100"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePayout_ValidationError(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/merchant/payouts", asMerchant, map[string]any{
		"external_id":   "ext-1",
		"amount":        "0",
		"merchant_rate": "100",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeBody[dto.ErrorResponse](t, rec).Code)
}

func TestCreatePayout_UnknownField(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/merchant/payouts", asMerchant, map[string]any{"nope": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPayout_Visibility(t *testing.T) {
	s := newTestServer(t)
	p := s.createPayout(t)
	path := "/v1/payouts/" + p.ID

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, asMerchant, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, asAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, map[string]string{HeaderMerchantID: "merchant-2"}, nil).Code)
	// не назначена - трейдер не видит
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, asTrader, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/v1/payouts/missing", asAdmin, nil).Code)
}

func TestPayoutLifecycle(t *testing.T) {
	s := newTestServer(t)
	p := s.createPayout(t)
	base := "/v1/trader/payouts/" + p.ID

	rec := s.do(t, http.MethodPost, base+"/accept", asTrader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decodeBody[dto.PayoutResponse](t, rec)
	assert.Equal(t, string(domain.PayoutActive), accepted.Status)
	assert.Equal(t, "10150.00", accepted.FrozenAmount)

	// теперь трейдер видит выплату
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/payouts/"+p.ID, asTrader, nil).Code)

	rec = s.do(t, http.MethodPost, base+"/confirm", asTrader, map[string]any{"proof_files": []string{"receipt.pdf"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(domain.PayoutChecking), decodeBody[dto.PayoutResponse](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/v1/merchant/payouts/"+p.ID+"/approve", asMerchant, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(domain.PayoutCompleted), decodeBody[dto.PayoutResponse](t, rec).Status)

	trader, err := s.store.GetTraderByID(context.Background(), "trader-1")
	require.NoError(t, err)
	assert.True(t, trader.FrozenSettlement.IsZero())

	// повторное подтверждение - конфликт состояния
	rec = s.do(t, http.MethodPost, base+"/confirm", asTrader, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAcceptPayout_InsufficientBalance(t *testing.T) {
	s := newTestServer(t)
	s.store.PutTrader(&domain.Trader{
		ID:                     "trader-poor",
		BalanceSettlement:      decimal.NewFromInt(100),
		MaxSimultaneousPayouts: 3,
		TrafficEnabled:         true,
	})
	p := s.createPayout(t)

	rec := s.do(t, http.MethodPost, "/v1/trader/payouts/"+p.ID+"/accept", map[string]string{HeaderTraderID: "trader-poor"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMerchantDispute(t *testing.T) {
	s := newTestServer(t)
	p := s.createPayout(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/v1/trader/payouts/"+p.ID+"/accept", asTrader, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/v1/trader/payouts/"+p.ID+"/confirm", asTrader, nil).Code)

	rec := s.do(t, http.MethodPost, "/v1/merchant/payouts/"+p.ID+"/dispute", asMerchant, map[string]any{"message": "money not received"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Payout  dto.PayoutResponse  `json:"payout"`
		Dispute dto.DisputeResponse `json:"dispute"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(domain.PayoutDisputed), body.Payout.Status)
	require.NotEmpty(t, body.Dispute.ID)

	// споры решает только админ
	rec = s.do(t, http.MethodPost, "/v1/admin/disputes/"+body.Dispute.ID+"/resolve", asMerchant, map[string]any{"outcome": "RESOLVED_FAIL"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/admin/disputes/"+body.Dispute.ID+"/resolve", asAdmin, map[string]any{
		"outcome":    string(domain.DisputeResolvedFail),
		"resolution": "trader proved the transfer",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(domain.DisputeResolvedFail), decodeBody[dto.DisputeResponse](t, rec).Status)
}

func TestAdminForceCancel(t *testing.T) {
	s := newTestServer(t)
	p := s.createPayout(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/v1/trader/payouts/"+p.ID+"/accept", asTrader, nil).Code)

	rec := s.do(t, http.MethodPost, "/v1/admin/payouts/"+p.ID+"/cancel", asAdmin, map[string]any{"reason": "fraud"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, string(domain.PayoutCancelled), decodeBody[dto.PayoutResponse](t, rec).Status)

	trader, err := s.store.GetTraderByID(context.Background(), "trader-1")
	require.NoError(t, err)
	assert.True(t, trader.BalanceSettlement.Equal(decimal.NewFromInt(20000)))
}

func TestListMerchantPayouts(t *testing.T) {
	s := newTestServer(t)
	s.createPayout(t)
	s.createPayout(t)

	rec := s.do(t, http.MethodGet, "/v1/merchant/payouts?limit=1", asMerchant, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[dto.PayoutListResponse](t, rec)
	assert.Equal(t, int64(2), list.Total)
	assert.Len(t, list.Payouts, 1)

	rec = s.do(t, http.MethodGet, "/v1/trader/payouts", asTrader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decodeBody[dto.PayoutListResponse](t, rec).Total)
}

func TestDistributionToggle(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPut, "/v1/admin/distribution", asAdmin, map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)

	values, err := s.store.GetValues(context.Background(), distribution.KeyDistributionEnabled)
	require.NoError(t, err)
	assert.Equal(t, "false", values[distribution.KeyDistributionEnabled])
}

func TestServiceEndpoints(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", nil, nil).Code)

	rec := s.do(t, http.MethodGet, "/v1/admin/exchange/health", asAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"rapira": true}, decodeBody[map[string]bool](t, rec))
}
