package setup

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/config"
	"github.com/LavaJover/shvark-payout-service/internal/domain"
	infrastructure "github.com/LavaJover/shvark-payout-service/internal/infrastructure/exchange_providers"
	"github.com/LavaJover/shvark-payout-service/internal/usecase"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/distribution"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/payout"
	"github.com/LavaJover/shvark-payout-service/internal/usecase/resolver"
	"github.com/shopspring/decimal"
)

type UseCases struct {
	PayoutUsecase       *payout.DefaultPayoutUsecase
	ExchangeRateService *usecase.DefaultExchangeRateService
	Distributor         *distribution.Distributor
	Monitor             *distribution.Monitor
	Resolver            *resolver.Resolver
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config
	repos := deps.Repositories

	exchangeCfg, err := exchangeRateConfig(cfg.Exchange)
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	exchangeRateService := usecase.NewDefaultExchangeRateService(exchangeCfg, deps.Logger)
	exchangeRateService.RegisterProvider(infrastructure.NewRapiraProvider(cfg.Exchange.BaseURL))
	exchangeRateService.RegisterProvider(infrastructure.NewBybitProvider(cfg.Exchange.BybitBaseURL))

	feePercent, err := decimal.NewFromString(cfg.Payout.DefaultFeePercent)
	if err != nil {
		return nil, fmt.Errorf("payout.default_fee_percent: %w", err)
	}

	payoutUsecase := payout.NewDefaultPayoutUsecase(
		repos.Ledger,
		repos.PayoutRepo,
		exchangeRateService,
		deps.Webhooks,
		deps.Broadcaster,
		deps.Metrics,
		deps.Logger,
		payout.Config{
			DefaultFeePercent:        feePercent,
			DefaultProcessingMinutes: cfg.Payout.DefaultProcessingMinutes,
		},
	)

	distributor := distribution.NewDistributor(
		repos.PayoutRepo,
		repos.TraderRepo,
		repos.ConfigStore,
		payoutUsecase,
		deps.Notifier,
		deps.Metrics,
		deps.Logger,
		distribution.Config{
			BatchSize:       cfg.Distribution.BatchSize,
			ReserveOnAssign: !strings.EqualFold(cfg.Distribution.Mode, "claim"),
		},
	)

	monitor := distribution.NewMonitor(
		repos.PayoutRepo,
		repos.TraderRepo,
		deps.Notifier,
		deps.Metrics,
		deps.Logger,
		cfg.Distribution.BatchSize,
	)

	loc, err := time.LoadLocation(cfg.Resolver.Timezone)
	if err != nil {
		return nil, fmt.Errorf("resolver.timezone: %w", err)
	}
	payoutResolver := resolver.NewResolver(
		repos.PayoutRepo,
		repos.DisputeRepo,
		repos.ConfigStore,
		payoutUsecase,
		deps.Metrics,
		deps.Logger,
		resolver.Config{
			BatchSize: cfg.Resolver.BatchSize,
			Location:  loc,
			Shifts:    resolver.DefaultShiftConfig(),
		},
	)

	return &UseCases{
		PayoutUsecase:       payoutUsecase,
		ExchangeRateService: exchangeRateService,
		Distributor:         distributor,
		Monitor:             monitor,
		Resolver:            payoutResolver,
	}, nil
}

func exchangeRateConfig(cfg config.Exchange) (usecase.ExchangeRateConfig, error) {
	out := usecase.ExchangeRateConfig{
		CurrencyPair: cfg.CurrencyPair,
		Providers:    cfg.Providers,
		CacheTTL:     cfg.CacheTTL,
	}
	if len(out.Providers) == 0 {
		out.Providers = []string{"rapira"}
	}
	positions, err := ParseOrderBookRange(cfg.OrderBookPositions)
	if err != nil {
		return out, err
	}
	out.OrderBookPositions = positions
	if cfg.FallbackRate != "" {
		rate, err := decimal.NewFromString(cfg.FallbackRate)
		if err != nil {
			return out, fmt.Errorf("fallback_rate: %w", err)
		}
		out.FallbackRate = rate
	}
	return out, nil
}

// ParseOrderBookRange разбирает "start:end" с позициями от единицы
// в диапазон индексов стакана от нуля
func ParseOrderBookRange(s string) (*domain.OrderBookRange, error) {
	if s == "" {
		return nil, nil
	}
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("order_book_positions %q: want start:end", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return nil, fmt.Errorf("order_book_positions start: %w", err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return nil, fmt.Errorf("order_book_positions end: %w", err)
	}
	if start < 1 || end < start {
		return nil, fmt.Errorf("order_book_positions %q: invalid range", s)
	}
	return &domain.OrderBookRange{Start: start - 1, End: end - 1}, nil
}
