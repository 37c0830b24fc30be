package kafka

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

type KafkaConfig struct {
	Brokers    []string
	Topic      string
	Username   string
	Password   string
	Mechanism  string // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	TLSEnabled bool
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		mechanism, err := saslMechanism(cfg)
		if err != nil {
			return nil, err
		}
		transport.SASL = mechanism
	}
	if cfg.TLSEnabled {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			Transport:    transport,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

func saslMechanism(cfg KafkaConfig) (sasl.Mechanism, error) {
	switch strings.ToUpper(cfg.Mechanism) {
	case "PLAIN":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "", "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported sasl mechanism %q", cfg.Mechanism)
	}
}

// Publish реализует domain.PublisherPort
func (k *KafkaPublisher) Publish(ctx context.Context, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}
	return k.writer.WriteMessages(ctx, km...)
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// PayoutEvent - сообщение топика payout-events, ключ - id трейдера
type PayoutEvent struct {
	Event      string    `json:"event"`
	PayoutID   string    `json:"payout_id"`
	NumericID  int64     `json:"numeric_id"`
	MerchantID string    `json:"merchant_id"`
	TraderID   string    `json:"trader_id"`
	Status     string    `json:"status"`
	Amount     string    `json:"amount"`
	Total      string    `json:"total"`
	TotalAsset string    `json:"total_asset"`
	Bank       string    `json:"bank"`
	ExpireAt   time.Time `json:"expire_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewPayoutEvent(event domain.PayoutEvent, payout *domain.Payout) PayoutEvent {
	return PayoutEvent{
		Event:      string(event),
		PayoutID:   payout.ID,
		NumericID:  payout.NumericID,
		MerchantID: payout.MerchantID,
		TraderID:   payout.TraderID,
		Status:     string(payout.Status),
		Amount:     payout.Amount.StringFixed(2),
		Total:      payout.Total.StringFixed(2),
		TotalAsset: payout.TotalAsset.StringFixed(2),
		Bank:       payout.Bank,
		ExpireAt:   payout.ExpireAt,
		OccurredAt: time.Now(),
	}
}

// EventSink публикует события выплат через PublisherPort.
// Уведомление трейдера - это событие payout.assigned.
type EventSink struct {
	publisher domain.PublisherPort
}

func NewEventSink(publisher domain.PublisherPort) *EventSink {
	return &EventSink{publisher: publisher}
}

func (s *EventSink) NotifyTraderNewPayout(ctx context.Context, trader *domain.Trader, payout *domain.Payout) error {
	return s.publish(ctx, domain.EventPayoutAssigned, payout, trader.ID)
}

// BroadcastUpdate дублирует смену статуса в топик, чтобы её видели
// консьюмеры без подписки на redis
func (s *EventSink) BroadcastUpdate(ctx context.Context, payoutID string, event domain.PayoutEvent, payout *domain.Payout, merchantID, traderID string) error {
	return s.publish(ctx, event, payout, traderID)
}

func (s *EventSink) publish(ctx context.Context, event domain.PayoutEvent, payout *domain.Payout, key string) error {
	value, err := json.Marshal(NewPayoutEvent(event, payout))
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, domain.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("publish %s for payout %s: %w", event, payout.ID, err)
	}
	return nil
}
