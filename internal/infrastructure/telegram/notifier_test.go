package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func telegramPayout() *domain.Payout {
	return &domain.Payout{
		ID:         "p-1",
		NumericID:  7,
		Amount:     decimal.NewFromInt(10000),
		TotalAsset: decimal.RequireFromString("99.5"),
		Bank:       "Т-Банк <test>",
		IsCard:     true,
		ExpireAt:   time.Date(2025, 3, 10, 12, 15, 0, 0, time.UTC),
	}
}

func TestNotifier_SendsHTMLMessage(t *testing.T) {
	sender := new(MockSender)
	var sent tgbotapi.MessageConfig
	sender.On("Send", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(0).(tgbotapi.MessageConfig) }).
		Return(nil)

	n := NewNotifier(sender)
	err := n.NotifyTraderNewPayout(context.Background(), &domain.Trader{ID: "t-1", TelegramChatID: 555}, telegramPayout())
	require.NoError(t, err)

	assert.Equal(t, tgbotapi.ModeHTML, sent.ParseMode)
	assert.Contains(t, sent.Text, "#7")
	assert.Contains(t, sent.Text, "10000.00 ₽")
	assert.Contains(t, sent.Text, "99.50 USDT")
	assert.Contains(t, sent.Text, "Т-Банк &lt;test&gt;")
	assert.Contains(t, sent.Text, "10.03.2025 12:15")
}

func TestNotifier_Errors(t *testing.T) {
	sender := new(MockSender)
	n := NewNotifier(sender)

	err := n.NotifyTraderNewPayout(context.Background(), &domain.Trader{ID: "t-1"}, telegramPayout())
	require.Error(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything)

	sender.On("Send", mock.Anything).Return(errors.New("chat not found"))
	err = n.NotifyTraderNewPayout(context.Background(), &domain.Trader{ID: "t-1", TelegramChatID: 1}, telegramPayout())
	require.ErrorContains(t, err, "chat not found")
}
