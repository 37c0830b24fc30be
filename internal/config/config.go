package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type PayoutConfig struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	GRPCServer   `yaml:"grpc_server"`
	HTTPServer   `yaml:"http_server"`
	PayoutDB     `yaml:"payout_db"`
	Storage      `yaml:"storage"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Redis        `yaml:"redis"`
	Telegram     `yaml:"telegram"`
	Exchange     `yaml:"exchange"`
	Distribution `yaml:"distribution"`
	Resolver     `yaml:"resolver"`
	Payout       `yaml:"payout"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50061"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type PayoutDB struct {
	Dsn            string `yaml:"dsn" env:"PAYOUT_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"PAYOUT_MIGRATIONS_PATH" env-default:"migrations"`
}

// Storage.Driver: postgres или memory (локальный запуск без базы)
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic      string   `yaml:"topic" env-default:"payout-events"`
	Username   string   `yaml:"username" env:"KAFKA_USERNAME"`
	Password   string   `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism  string   `yaml:"mechanism" env-default:"SCRAM-SHA-512"`
	TLSEnabled bool     `yaml:"tls_enabled"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel" env-default:"payouts:updates"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
}

type Exchange struct {
	BaseURL      string `yaml:"base_url" env-default:"https://api.rapira.net"`
	BybitBaseURL string `yaml:"bybit_base_url" env-default:"https://api.bybit.com"`
	// Providers - порядок опроса источников курса
	Providers          []string      `yaml:"providers" env:"EXCHANGE_PROVIDERS" env-separator:"," env-default:"rapira,bybit"`
	CurrencyPair       string        `yaml:"currency_pair" env-default:"USDT/RUB"`
	OrderBookPositions string        `yaml:"order_book_positions" env-default:"1:5"`
	// FallbackRate - курс, если все источники недоступны; "0" отключает
	FallbackRate       string        `yaml:"fallback_rate" env:"EXCHANGE_FALLBACK_RATE" env-default:"100"`
	CacheTTL           time.Duration `yaml:"cache_ttl" env-default:"30s"`
}

type Distribution struct {
	Interval        time.Duration `yaml:"interval" env-default:"1s"`
	MonitorInterval time.Duration `yaml:"monitor_interval" env-default:"30s"`
	BatchSize       int           `yaml:"batch_size" env-default:"100"`
	// Mode: reserve - резерв баланса при назначении, claim - только при принятии
	Mode string `yaml:"mode" env:"DISTRIBUTION_MODE" env-default:"reserve"`
}

type Resolver struct {
	ExpireInterval  time.Duration `yaml:"expire_interval" env-default:"1m"`
	DisputeInterval time.Duration `yaml:"dispute_interval" env-default:"1m"`
	BatchSize       int           `yaml:"batch_size" env-default:"500"`
	Timezone        string        `yaml:"timezone" env-default:"Europe/Moscow"`
}

type Payout struct {
	DefaultFeePercent        string        `yaml:"default_fee_percent" env-default:"0"`
	DefaultProcessingMinutes int           `yaml:"default_processing_minutes" env-default:"15"`
	WebhookTimeout           time.Duration `yaml:"webhook_timeout" env-default:"10s"`
}

// Load читает .env (если есть) и YAML из path
func Load(path string) (*PayoutConfig, error) {
	_ = godotenv.Load()

	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg PayoutConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *PayoutConfig {
	_ = godotenv.Load()

	configPath := os.Getenv("PAYOUT_CONFIG_PATH")
	if configPath == "" {
		log.Fatalf("PAYOUT_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return cfg
}
