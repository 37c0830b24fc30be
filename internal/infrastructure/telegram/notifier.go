package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/LavaJover/shvark-payout-service/internal/domain"
	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// Sender - часть *tgbotapi.BotAPI, которая нужна уведомлениям
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	bot Sender
}

func NewNotifier(bot Sender) *Notifier {
	return &Notifier{bot: bot}
}

// NewBotNotifier создаёт бота по токену
func NewBotNotifier(token string) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot api: %w", err)
	}
	return NewNotifier(api), nil
}

func (n *Notifier) NotifyTraderNewPayout(ctx context.Context, trader *domain.Trader, payout *domain.Payout) error {
	if trader.TelegramChatID == 0 {
		return fmt.Errorf("trader %s has no telegram chat", trader.ID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(trader.TelegramChatID, NewPayoutText(payout))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func NewPayoutText(p *domain.Payout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💸 <b>Новая выплата #%d</b>\n", p.NumericID)
	fmt.Fprintf(&b, "Сумма: <b>%s ₽</b> (%s USDT)\n", p.Amount.StringFixed(2), p.TotalAsset.StringFixed(2))
	if p.Bank != "" {
		fmt.Fprintf(&b, "Банк: %s\n", html.EscapeString(p.Bank))
	}
	if p.IsCard {
		b.WriteString("Тип: карта\n")
	} else {
		b.WriteString("Тип: перевод\n")
	}
	fmt.Fprintf(&b, "Принять до: %s UTC", p.ExpireAt.UTC().Format("02.01.2006 15:04"))
	return b.String()
}
