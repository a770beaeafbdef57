package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	ClashAPIToken     string
	ClashBaseURL      string
	DBPath            string
	ServerPort        string
	LogLevel          string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ClashAPIToken:     getEnv("CLASH_API_TOKEN", ""),
		ClashBaseURL:      getEnv("CLASH_BASE_URL", "https://api.clashroyale.com/v1"),
		DBPath:            getEnv("DB_PATH", "royale.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}

	if cfg.ClashAPIToken == "" {
		return nil, fmt.Errorf("CLASH_API_TOKEN is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("clash_base_url", cfg.ClashBaseURL).
		Int("rate_limit_requests", cfg.RateLimitRequests).
		Dur("rate_limit_window", cfg.RateLimitWindow).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
