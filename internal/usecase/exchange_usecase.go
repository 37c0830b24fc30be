// internal/usecase/exchange_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ExchangeRateConfig struct {
	CurrencyPair       string
	OrderBookPositions *domain.OrderBookRange
	// Providers - порядок опроса, первый успешный ответ выигрывает
	Providers []string
	// FallbackRate - курс, если все провайдеры недоступны. Ноль - вернуть ошибку
	FallbackRate decimal.Decimal
	CacheTTL     time.Duration
}

// DefaultExchangeRateService отдаёт курс мерчанта для новых выплат
type DefaultExchangeRateService struct {
	providers map[string]domain.ExchangeRateProvider
	cfg       ExchangeRateConfig
	cache     *ExchangeRateCache
	logger    *slog.Logger
}

type ExchangeRateCache struct {
	rates map[string]CachedRate
	ttl   time.Duration
	mu    sync.RWMutex
	now   func() time.Time
}

type CachedRate struct {
	rate      decimal.Decimal
	timestamp time.Time
	provider  string
}

func NewDefaultExchangeRateService(cfg ExchangeRateConfig, logger *slog.Logger) *DefaultExchangeRateService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Second // Кешируем на 10 секунд
	}
	if cfg.CurrencyPair == "" {
		cfg.CurrencyPair = "USDT/RUB"
	}
	return &DefaultExchangeRateService{
		providers: make(map[string]domain.ExchangeRateProvider),
		cfg:       cfg,
		cache: &ExchangeRateCache{
			rates: make(map[string]CachedRate),
			ttl:   cfg.CacheTTL,
			now:   time.Now,
		},
		logger: logger.With("component", "exchange"),
	}
}

func (s *DefaultExchangeRateService) RegisterProvider(provider domain.ExchangeRateProvider) {
	s.providers[provider.GetName()] = provider
	if len(s.cfg.Providers) == 0 {
		s.cfg.Providers = []string{provider.GetName()}
	}
}

// GetRate реализует domain.RateProvider
func (s *DefaultExchangeRateService) GetRate(ctx context.Context) (decimal.Decimal, error) {
	var errs []error
	for _, name := range s.cfg.Providers {
		rate, err := s.getRateWithProvider(ctx, name)
		if err == nil {
			return rate, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	err := errors.Join(errs...)
	if err == nil {
		err = errors.New("no exchange providers registered")
	}
	if s.cfg.FallbackRate.IsPositive() {
		s.logger.Warn("using fallback exchange rate", "rate", s.cfg.FallbackRate, "error", err)
		return s.cfg.FallbackRate, nil
	}
	return decimal.Zero, fmt.Errorf("all exchange providers failed: %w", err)
}

func (s *DefaultExchangeRateService) getRateWithProvider(ctx context.Context, providerName string) (decimal.Decimal, error) {
	cacheKey := fmt.Sprintf("%s_%s", providerName, s.cfg.CurrencyPair)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.rate, nil
	}

	provider, exists := s.providers[providerName]
	if !exists {
		return decimal.Zero, fmt.Errorf("exchange provider %s not found", providerName)
	}

	rate, err := provider.GetRate(ctx, &domain.ExchangeConfig{
		CurrencyPair:       s.cfg.CurrencyPair,
		OrderBookPositions: s.cfg.OrderBookPositions,
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("exchange provider %s returned non-positive rate %s", providerName, rate)
	}

	s.cache.Set(cacheKey, rate, providerName)
	return rate, nil
}

func (s *DefaultExchangeRateService) HealthCheck(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(s.providers))
	for name, provider := range s.providers {
		out[name] = provider.IsHealthy(ctx)
	}
	return out
}

// Методы кеша
func (c *ExchangeRateCache) Get(key string) (CachedRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.rates[key]
	if !exists || c.now().Sub(cached.timestamp) > c.ttl {
		return CachedRate{}, false
	}
	return cached, true
}

func (c *ExchangeRateCache) Set(key string, rate decimal.Decimal, provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates[key] = CachedRate{
		rate:      rate,
		timestamp: c.now(),
		provider:  provider,
	}
}
