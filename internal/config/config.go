package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration. Values are read from the
// YAML config file first and then overridden by environment variables, so a
// container deployment can run without any config file at all.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Alerts struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		TelegramChatID   int64  `yaml:"telegram_chat_id"`
	} `yaml:"alerts"`
}

// ErrMissingJWTSecret makes a missing signing secret a startup-fatal
// condition. A baked-in fallback secret would silently sign production
// tokens with a known key.
var ErrMissingJWTSecret = errors.New("jwt secret is not configured (set JWT_SECRET or jwt.secret)")

// LoadConfig reads configuration from the YAML file at configPath (if it
// exists), applies environment overrides and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err == nil {
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	applyEnvOverrides(config)

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PORT"); v != "" {
		config.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		config.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.JWT.Secret = v
	}
	if v := os.Getenv("ALERTS_TELEGRAM_BOT_TOKEN"); v != "" {
		config.Alerts.TelegramBotToken = v
		config.Alerts.Enabled = true
	}
	if v := os.Getenv("ALERTS_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Alerts.TelegramChatID = id
		}
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is not configured (set DATABASE_URL or database.url)")
	}
	if c.Redis.URL == "" {
		return errors.New("redis url is not configured (set REDIS_URL or redis.url)")
	}
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
