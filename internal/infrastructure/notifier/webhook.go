package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
)

const SignatureHeader = "X-Signature"

// Паузы между попытками: 500ms, 1s. Всего 3 попытки.
var defaultBackoff = []time.Duration{500 * time.Millisecond, time.Second}

// WebhookDispatcher шлёт колбэки мерчантам в фоне.
// Тело подписывается HMAC-SHA256 секретом мерчанта: "sha256=<hex>".
type WebhookDispatcher struct {
	merchants domain.MerchantRepository
	client    *http.Client
	logger    *slog.Logger
	backoff   []time.Duration

	wg sync.WaitGroup
}

func NewWebhookDispatcher(merchants domain.MerchantRepository, timeout time.Duration, logger *slog.Logger) *WebhookDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDispatcher{
		merchants: merchants,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		backoff:   defaultBackoff,
	}
}

// WithBackoff заменяет паузы между попытками; число попыток = len(backoff)+1
func (d *WebhookDispatcher) WithBackoff(backoff ...time.Duration) *WebhookDispatcher {
	d.backoff = backoff
	return d
}

func (d *WebhookDispatcher) SendStatusWebhook(ctx context.Context, payout *domain.Payout, event domain.PayoutEvent) {
	if payout.WebhookURL == "" {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(context.WithoutCancel(ctx), payout, event)
	}()
}

// Wait дожидается отправки всех начатых вебхуков
func (d *WebhookDispatcher) Wait() {
	d.wg.Wait()
}

func (d *WebhookDispatcher) deliver(ctx context.Context, payout *domain.Payout, event domain.PayoutEvent) {
	body, err := json.Marshal(NewCallbackPayload(event, payout))
	if err != nil {
		d.logger.Error("failed to marshal webhook", "payout_id", payout.ID, "error", err)
		return
	}

	var secret string
	if d.merchants != nil {
		merchant, err := d.merchants.GetMerchantByID(ctx, payout.MerchantID)
		if err != nil {
			d.logger.Warn("merchant not found for webhook, sending unsigned",
				"payout_id", payout.ID, "merchant_id", payout.MerchantID, "error", err)
		} else {
			secret = merchant.WebhookSecret
		}
	}

	attempts := len(d.backoff) + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		err = d.post(ctx, payout.WebhookURL, body, secret)
		if err == nil {
			d.logger.Debug("webhook delivered", "payout_id", payout.ID, "event", event, "attempt", attempt)
			return
		}
		d.logger.Warn("webhook attempt failed",
			"payout_id", payout.ID, "event", event, "attempt", attempt, "error", err)
		if attempt < attempts {
			time.Sleep(d.backoff[attempt-1])
		}
	}
	d.logger.Error("webhook delivery failed", "payout_id", payout.ID, "event", event, "url", payout.WebhookURL)
}

func (d *WebhookDispatcher) post(ctx context.Context, url string, body []byte, secret string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
