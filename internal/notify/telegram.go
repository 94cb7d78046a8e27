package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"
)

// Telegram shows notifications as messages in a Telegram chat.
type Telegram struct {
	bot    *tele.Bot
	chatID int64
	logger *zap.Logger

	mu   sync.Mutex
	perm Permission
}

// TelegramConfig configures the Telegram dispatcher.
type TelegramConfig struct {
	Token  string
	ChatID int64
	// APIURL overrides the Bot API endpoint; empty uses the public one.
	APIURL string
}

// NewTelegram creates a dispatcher. No network call is made until permission
// is requested.
func NewTelegram(cfg TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID, logger: logger, perm: Denied}, nil
}

func (t *Telegram) PermissionStatus(context.Context) (Permission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.perm, nil
}

// RequestPermission resolves the target chat. Permission is granted only when
// the bot can see it.
func (t *Telegram) RequestPermission(context.Context) (Permission, error) {
	if t.chatID == 0 {
		return Denied, errors.New("telegram chat id is not configured")
	}
	chat, err := t.bot.ChatByID(t.chatID)
	if err != nil {
		return Denied, fmt.Errorf("resolve telegram chat: %w", err)
	}
	t.logger.Info("telegram chat resolved", zap.Int64("chat_id", chat.ID), zap.String("title", chat.Title))

	t.mu.Lock()
	t.perm = Granted
	t.mu.Unlock()
	return Granted, nil
}

func (t *Telegram) Schedule(_ context.Context, c Content) error {
	t.mu.Lock()
	perm := t.perm
	t.mu.Unlock()
	if perm != Granted {
		return ErrPermissionDenied
	}
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(c.Title), html.EscapeString(c.Body))
	if _, err := t.bot.Send(tele.ChatID(t.chatID), text, tele.ModeHTML); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
