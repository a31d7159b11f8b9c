// Package config loads runtime configuration from the environment.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from environment
// variables (optionally loaded from .env by main).
type Config struct {
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	DatabasePath     string `mapstructure:"DATABASE_PATH"`
	HTTPAddr         string `mapstructure:"HTTP_ADDR"`
	BotOwnerID       int64  `mapstructure:"BOT_OWNER_ID"`
	OpenAIAPIKey     string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel      string `mapstructure:"OPENAI_MODEL"`
}

// Load reads the configuration from the environment. The bot token is the
// only required value.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("DATABASE_PATH", "data.sqlite")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("BOT_OWNER_ID", int64(0))
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_MODEL", "")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.TelegramBotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	}
	return &cfg, nil
}
