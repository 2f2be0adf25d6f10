package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type cliConfig struct {
	APIURL       string        `env:"MARKET_API_URL, default=http://localhost:8080"`
	SessionStore string        `env:"MARKET_SESSION_STORE, default=file"`
	SessionFile  string        `env:"MARKET_SESSION_FILE"`
	RedisAddr    string        `env:"MARKET_REDIS_ADDR, default=localhost:6379"`
	RedisDB      int           `env:"MARKET_REDIS_DB, default=0"`
	Timeout      time.Duration `env:"MARKET_TIMEOUT, default=10s"`
	LogLevel     string        `env:"MARKET_LOG_LEVEL, default=warn"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (cliConfig, error) {
	var cfg cliConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return cliConfig{}, fmt.Errorf("config: %w", err)
	}
	switch cfg.SessionStore {
	case "file", "redis", "memory":
	default:
		return cliConfig{}, fmt.Errorf("config: unknown MARKET_SESSION_STORE %q", cfg.SessionStore)
	}
	if cfg.SessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.SessionFile = filepath.Join(dir, "marketctl", "session.json")
	}
	return cfg, nil
}
