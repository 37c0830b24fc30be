// internal/infrastructure/exchange_providers/rapira_provider.go
package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

const rapiraBaseURL = "https://api.rapira.net"

type RapiraProvider struct {
	client  *http.Client
	baseURL string
}

type RapiraItem struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

type RapiraResponse struct {
	Ask struct {
		Direction    string          `json:"direction"`
		Symbol       string          `json:"symbol"`
		MaxAmount    decimal.Decimal `json:"max_amount"`
		MinAmount    decimal.Decimal `json:"min_amount"`
		HighestPrice decimal.Decimal `json:"highest_price"`
		LowestPrice  decimal.Decimal `json:"lowest_price"`
		Items        []RapiraItem    `json:"items"`
	} `json:"ask"`
}

func NewRapiraProvider(baseURL string) *RapiraProvider {
	if baseURL == "" {
		baseURL = rapiraBaseURL
	}
	return &RapiraProvider{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (r *RapiraProvider) GetName() string {
	return "rapira"
}

// GetRate - средняя цена ask по позициям стакана [Start, End]
func (r *RapiraProvider) GetRate(ctx context.Context, config *domain.ExchangeConfig) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/market/exchange-plate-mini?symbol=%s", r.baseURL, url.QueryEscape(config.CurrencyPair))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rates from Rapira: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rapira API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response body: %w", err)
	}

	var rapiraResponse RapiraResponse
	if err := json.Unmarshal(body, &rapiraResponse); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse Rapira response: %w", err)
	}

	positions := config.OrderBookPositions
	prices := make([]decimal.Decimal, len(rapiraResponse.Ask.Items))
	for i, item := range rapiraResponse.Ask.Items {
		prices[i] = item.Price
	}
	return averagePrice(prices, positions)
}

// averagePrice - если в стакане меньше позиций, чем просили, берём сколько есть
func averagePrice(items []decimal.Decimal, positions *domain.OrderBookRange) (decimal.Decimal, error) {
	if positions == nil {
		positions = &domain.OrderBookRange{Start: 0, End: 4}
	}
	start, end := positions.Start, positions.End
	if len(items) == 0 {
		return decimal.Zero, fmt.Errorf("no items in order book")
	}
	if start < 0 || start > end || start >= len(items) {
		return decimal.Zero, fmt.Errorf("invalid positions range: start=%d, end=%d, available=%d", start, end, len(items))
	}
	if end >= len(items) {
		end = len(items) - 1
	}

	total := decimal.Zero
	for i := start; i <= end; i++ {
		total = total.Add(items[i])
	}
	avg := total.Div(decimal.NewFromInt(int64(end - start + 1)))
	return domain.Trunc2(avg), nil
}

func (r *RapiraProvider) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.GetRate(ctx, &domain.ExchangeConfig{CurrencyPair: "USDT/RUB"})
	return err == nil
}
