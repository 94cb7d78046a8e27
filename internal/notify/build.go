package notify

import (
	"fmt"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/config"
	"go.uber.org/zap"
)

// FromConfig builds the dispatcher chain for a profile: the log sink, plus
// Telegram when a token is configured, fanned out and rate limited.
func FromConfig(cfg config.Notifications, b *bus.Bus, logger *zap.Logger) (Dispatcher, error) {
	sinks := []Dispatcher{NewLog(logger, cfg.Enabled)}
	if cfg.Enabled && cfg.Telegram.Token != "" {
		tg, err := NewTelegram(TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
			APIURL: cfg.Telegram.APIURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("telegram notifications: %w", err)
		}
		sinks = append(sinks, tg)
	}
	return NewRateLimited(NewMulti(b, logger, sinks...), cfg.RateEvery, cfg.RateBurst), nil
}
