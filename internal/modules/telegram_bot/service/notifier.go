package service

import (
	"context"
	"fmt"

	"trade_guard/internal/modules/config"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram pushes alerts to a single operator chat. Passive: no inbound
// command handling, the dashboard owns interaction.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

// NewTelegram tolerates a missing token: the bot runs with notifications
// off and IsReady reports false, which makes the time-stop monitor retry
// instead of marking alerts sent.
func NewTelegram(cfg *config.Config) (*Telegram, error) {
	if cfg.Telegram.Token == "" {
		return &Telegram{}, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Telegram{bot: b, chatID: cfg.Telegram.ChatID}, nil
}

func (t *Telegram) IsReady() bool {
	return t != nil && t.bot != nil && t.chatID != 0
}

func (t *Telegram) Send(ctx context.Context, msg string) error {
	if !t.IsReady() {
		return fmt.Errorf("telegram channel not ready")
	}
	_, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg))
	return err
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) error {
	return t.Send(ctx, fmt.Sprintf(format, args...))
}
