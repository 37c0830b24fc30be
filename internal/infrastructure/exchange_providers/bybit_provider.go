package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	bybitBaseURL       = "https://api.bybit.com"
	bybitOrderbookPath = "/v5/market/orderbook"
)

// BybitProvider - резервный источник курса: спотовый стакан Bybit
type BybitProvider struct {
	client  *http.Client
	baseURL string
}

type BybitOrderbookResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol    string     `json:"s"`
		Bids      [][]string `json:"b"`
		Asks      [][]string `json:"a"`
		Timestamp int64      `json:"ts"`
	} `json:"result"`
}

func NewBybitProvider(baseURL string) *BybitProvider {
	if baseURL == "" {
		baseURL = bybitBaseURL
	}
	return &BybitProvider{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (b *BybitProvider) GetName() string {
	return "bybit"
}

// bybitSymbol: "USDT/RUB" -> "USDTRUB"
func bybitSymbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
}

func (b *BybitProvider) GetRate(ctx context.Context, config *domain.ExchangeConfig) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("category", "spot")
	query.Set("symbol", bybitSymbol(config.CurrencyPair))
	query.Set("limit", "50")
	endpoint := fmt.Sprintf("%s%s?%s", b.baseURL, bybitOrderbookPath, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get orderbook from Bybit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("bybit API returned status: %d", resp.StatusCode)
	}

	var orderbook BybitOrderbookResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderbook); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse Bybit response: %w", err)
	}
	if orderbook.RetCode != 0 {
		return decimal.Zero, fmt.Errorf("bybit API error: %s", orderbook.RetMsg)
	}

	// уровень стакана: [цена, объём]
	prices := make([]decimal.Decimal, 0, len(orderbook.Result.Asks))
	for _, level := range orderbook.Result.Asks {
		if len(level) < 1 {
			continue
		}
		price, err := decimal.NewFromString(level[0])
		if err != nil {
			return decimal.Zero, fmt.Errorf("bad price %q in Bybit orderbook: %w", level[0], err)
		}
		prices = append(prices, price)
	}
	return averagePrice(prices, config.OrderBookPositions)
}

func (b *BybitProvider) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := b.GetRate(ctx, &domain.ExchangeConfig{CurrencyPair: "USDT/RUB"})
	return err == nil
}
