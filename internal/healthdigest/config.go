package healthdigest

import (
	"errors"
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port       string
	Interval   time.Duration
	StaleAfter time.Duration
}

func LoadConfigFromEnv() (Config, error) {
	interval, err := time.ParseDuration(getEnv("DIGEST_INTERVAL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DIGEST_INTERVAL: %w", err)
	}

	if interval < 5*time.Second {
		return Config{}, errors.New("DIGEST_INTERVAL must be >= 5s")
	}

	staleAfter, err := time.ParseDuration(getEnv("DIGEST_STALE_AFTER", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DIGEST_STALE_AFTER: %w", err)
	}

	return Config{
		Port:       getEnv("DIGEST_PORT", "8081"),
		Interval:   interval,
		StaleAfter: staleAfter,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
