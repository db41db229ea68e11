package messaging

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cast"
	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

// TelegramSender delivers blocks through a Telegram bot.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramSender authenticates the bot once and reuses it for every send.
func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// Send delivers one text block to the chat.
func (t *TelegramSender) Send(chatID, text string) error {
	msg := tgbotapi.NewMessage(cast.ToInt64(chatID), text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// LogSender logs blocks instead of delivering them; used when no bot token
// is configured (local development).
type LogSender struct {
	Logger *slog.Logger
}

func (l *LogSender) Send(chatID, text string) error {
	l.Logger.Info("message block", "chat_id", chatID, "text", text)
	return nil
}
