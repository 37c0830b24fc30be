package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payout-service/internal/config"
	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/realtime"
	"github.com/LavaJover/shvark-payout-service/internal/infrastructure/telegram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Dependencies struct {
	Config       *config.PayoutConfig
	Logger       *slog.Logger
	DB           *gorm.DB
	Redis        *redis.Client
	Publisher    *kafka.KafkaPublisher
	Registry     *prometheus.Registry
	Metrics      *metrics.PayoutMetrics
	Repositories *Repositories
	Notifier     domain.NotificationSink
	Broadcaster  domain.Broadcaster
	Webhooks     *notifier.WebhookDispatcher
}

type Repositories struct {
	Ledger      domain.Ledger
	PayoutRepo  domain.PayoutRepository
	TraderRepo  domain.TraderRepository
	Merchants   domain.MerchantRepository
	DisputeRepo domain.DisputeRepository
	ConfigStore domain.ConfigStore
}

func InitializeDependencies(ctx context.Context, cfg *config.PayoutConfig, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = metrics.NewPayoutMetrics(deps.Registry)

	repos, db, err := initRepositories(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	deps.DB = db
	deps.Repositories = repos

	var sinks notifier.MultiSink
	var broadcasters notifier.MultiBroadcaster

	if len(cfg.KafkaService.Brokers) > 0 {
		publisher, err := kafka.NewKafkaPublisher(kafka.KafkaConfig{
			Brokers:    cfg.KafkaService.Brokers,
			Topic:      cfg.KafkaService.Topic,
			Username:   cfg.KafkaService.Username,
			Password:   cfg.KafkaService.Password,
			Mechanism:  cfg.KafkaService.Mechanism,
			TLSEnabled: cfg.KafkaService.TLSEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		deps.Publisher = publisher
		events := kafka.NewEventSink(publisher)
		sinks = append(sinks, events)
		broadcasters = append(broadcasters, events)
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := telegram.NewBotNotifier(cfg.Telegram.BotToken)
		if err != nil {
			// бот не критичен, уведомления уйдут через остальные каналы
			logger.Error("telegram notifier disabled", "error", err)
		} else {
			sinks = append(sinks, tg)
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		deps.Redis = client
		broadcasters = append(broadcasters, realtime.NewRedisBroadcaster(client, cfg.Redis.Channel))
	}

	if len(sinks) == 0 {
		logger.Warn("no trader notification channels configured")
	}
	deps.Notifier = sinks
	deps.Broadcaster = broadcasters
	deps.Webhooks = notifier.NewWebhookDispatcher(repos.Merchants, cfg.Payout.WebhookTimeout, logger)

	return deps, nil
}

func initRepositories(cfg *config.PayoutConfig, logger *slog.Logger) (*Repositories, *gorm.DB, error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &Repositories{
			Ledger:      store,
			PayoutRepo:  store,
			TraderRepo:  store,
			Merchants:   store,
			DisputeRepo: store,
			ConfigStore: store,
		}, nil, nil
	case DriverPostgres, "":
		db, err := postgres.InitDB(cfg.PayoutDB.Dsn)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Env == "local" {
			err = postgres.AutoMigrate(db)
		} else {
			err = migrate.RunMigrations(db, cfg.PayoutDB.MigrationsPath, logger)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return &Repositories{
			Ledger:      repository.NewDefaultLedger(db),
			PayoutRepo:  repository.NewDefaultPayoutRepository(db),
			TraderRepo:  repository.NewDefaultTraderRepository(db),
			Merchants:   repository.NewDefaultMerchantRepository(db),
			DisputeRepo: repository.NewDefaultDisputeRepository(db),
			ConfigStore: repository.NewDefaultConfigRepository(db),
		}, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close освобождает внешние соединения после остановки воркеров
func (d *Dependencies) Close() {
	if d.Webhooks != nil {
		d.Webhooks.Wait()
	}
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Error("failed to close kafka writer", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("failed to close redis", "error", err)
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
