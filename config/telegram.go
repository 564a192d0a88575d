package config

import (
	"errors"
)

// TelegramConfig holds the credentials for the Telegram notification sink.
// In prod both values come from SSM Parameter Store; elsewhere they are read
// from config.yaml or the TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID env vars.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Resolve fills missing credentials from the parameter store (prod only) and
// fails if either is still absent. A missing notification channel is a
// startup error, not a degraded mode.
func (cfg *TelegramConfig) Resolve(env string) error {
	if env == "prod" {
		if cfg.BotToken == "" {
			cfg.BotToken = getParameterStoreValue("SPIKEWATCH_TELEGRAM_BOT_TOKEN", true)
		}
		if cfg.ChatID == "" {
			cfg.ChatID = getParameterStoreValue("SPIKEWATCH_TELEGRAM_CHAT_ID", true)
		}
	}

	if cfg.BotToken == "" || cfg.ChatID == "" {
		return errors.New("missing telegram bot token or chat id")
	}
	return nil
}
