package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bybitBook = `{"retCode":0,"retMsg":"OK","result":{"s":"USDTRUB","a":[
	["95.10","1000"],["95.20","500"],["95.30","10"],["95.40","10"],["95.50","10"],["99.00","1"]
],"b":[["94.90","100"]],"ts":1716863719031}}`

func TestBybitProvider_GetRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, bybitOrderbookPath, r.URL.Path)
		assert.Equal(t, "USDTRUB", r.URL.Query().Get("symbol"))
		assert.Equal(t, "spot", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(bybitBook))
	}))
	defer srv.Close()

	p := NewBybitProvider(srv.URL)
	assert.Equal(t, "bybit", p.GetName())

	rate, err := p.GetRate(context.Background(), &domain.ExchangeConfig{
		CurrencyPair:       "USDT/RUB",
		OrderBookPositions: &domain.OrderBookRange{Start: 0, End: 4},
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("95.30").Equal(rate), rate.String())
	assert.True(t, p.IsHealthy(context.Background()))
}

func TestBybitProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10001,"retMsg":"Not supported symbols","result":{}}`))
	}))
	defer srv.Close()

	_, err := NewBybitProvider(srv.URL).GetRate(context.Background(), &domain.ExchangeConfig{CurrencyPair: "USDT/RUB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not supported symbols")
}
