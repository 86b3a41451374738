// Package config loads plant-manager settings from the environment and an optional .env file
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abelzeko/plant-manager/internal/logger"
	"github.com/abelzeko/plant-manager/internal/schedule"
)

// Config holds all settings shared by the plant-manager binaries
type Config struct {
	TelegramToken    string `mapstructure:"telegram_bot_token"`
	OwnerChatID      int64  `mapstructure:"owner_chat_id"`
	DBPath           string `mapstructure:"db_path"`
	CatalogURL       string `mapstructure:"catalog_url"`
	CatalogAddr      string `mapstructure:"catalog_addr"`
	Locale           string `mapstructure:"locale"`
	Timezone         string `mapstructure:"timezone"`
	ReminderSchedule string `mapstructure:"reminder_schedule"`
	MetricsAddr      string `mapstructure:"metrics_addr"`
	OpenAIKey        string `mapstructure:"openai_api_key"`
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
}

var keys = []string{
	"telegram_bot_token",
	"owner_chat_id",
	"db_path",
	"catalog_url",
	"catalog_addr",
	"locale",
	"timezone",
	"reminder_schedule",
	"metrics_addr",
	"openai_api_key",
	"log_level",
	"log_format",
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for _, key := range keys {
		// Upper-cased key names are the environment variable names
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "")
	v.SetDefault("catalog_url", "http://localhost:3333")
	v.SetDefault("catalog_addr", ":3333")
	v.SetDefault("locale", string(schedule.English))
	v.SetDefault("timezone", "Local")
	v.SetDefault("reminder_schedule", "* * * * *")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// ValidateBot checks the settings the Telegram bot cannot run without
func (c *Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if c.OwnerChatID == 0 {
		return errors.New("OWNER_CHAT_ID environment variable is not set")
	}
	return nil
}

// Location resolves the configured timezone used for watering times
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Language returns the configured locale for user-facing text
func (c *Config) Language() schedule.Locale {
	return schedule.ParseLocale(c.Locale)
}

// Logger returns the logging options
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Format: c.LogFormat}
}
