// Package realtime рассылает смены статусов выплат через redis PUBLISH.
// Доставка at-most-once: отключённый подписчик событие теряет.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type Update struct {
	Event      string    `json:"event"`
	PayoutID   string    `json:"payout_id"`
	NumericID  int64     `json:"numeric_id"`
	Status     string    `json:"status"`
	MerchantID string    `json:"merchant_id"`
	TraderID   string    `json:"trader_id,omitempty"`
	Amount     string    `json:"amount"`
	At         time.Time `json:"at"`
}

type RedisBroadcaster struct {
	client  Publisher
	channel string
}

func NewRedisBroadcaster(client Publisher, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = "payouts:updates"
	}
	return &RedisBroadcaster{client: client, channel: channel}
}

// NewRedisClient - клиент с проверкой соединения
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (b *RedisBroadcaster) BroadcastUpdate(ctx context.Context, payoutID string, event domain.PayoutEvent, payout *domain.Payout, merchantID, traderID string) error {
	update := Update{
		Event:      string(event),
		PayoutID:   payoutID,
		MerchantID: merchantID,
		TraderID:   traderID,
		At:         time.Now(),
	}
	if payout != nil {
		update.NumericID = payout.NumericID
		update.Status = string(payout.Status)
		update.Amount = payout.Amount.StringFixed(2)
	}
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	// общий канал плюс персональные каналы мерчанта и трейдера
	channels := []string{b.channel, b.channel + ":merchant:" + merchantID}
	if traderID != "" {
		channels = append(channels, b.channel+":trader:"+traderID)
	}
	for _, ch := range channels {
		if err := b.client.Publish(ctx, ch, body).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", ch, err)
		}
	}
	return nil
}
