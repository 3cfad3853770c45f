package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	ListenAddr string

	SquareSize int

	EngineWebhookURL string

	RedisURL     string
	RedisChannel string

	MessageDir string
}

// Load reads configuration from the environment. Invalid numeric values fall
// back to their defaults; only a blank listen address is an error.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:   ":8571",
		SquareSize:   72,
		RedisChannel: "minae:events",
	}

	if v := strings.TrimSpace(os.Getenv("MINAE_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("MINAE_SQUARE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 16 && n <= 256 {
			cfg.SquareSize = n
		}
	}

	cfg.EngineWebhookURL = strings.TrimRight(strings.TrimSpace(os.Getenv("MINAE_ENGINE_WEBHOOK_URL")), "/")

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("MINAE_REDIS_CHANNEL")); v != "" {
		cfg.RedisChannel = v
	}

	cfg.MessageDir = strings.TrimSpace(os.Getenv("MINAE_MESSAGE_DIR"))

	if cfg.ListenAddr == "" {
		return nil, errors.New("MINAE_LISTEN_ADDR is required")
	}

	return cfg, nil
}
