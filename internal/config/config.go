package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                int    `env:"PORT" envDefault:"8080"`
	DatabaseURL         string `env:"DATABASE_URL,required"`
	RedisURL            string `env:"REDIS_URL,required"`
	ResendAPIKey        string `env:"RESEND_API_KEY"`
	MaxMessageAgeSecs   int    `env:"MAX_MESSAGE_AGE_SECONDS" envDefault:"300"`
	StopCacheTTLSecs    int    `env:"STOP_CACHE_TTL_SECONDS" envDefault:"900"`
	ItineraryTTLSecs    int    `env:"ITINERARY_TTL_SECONDS" envDefault:"900"`
	WebhookRatePerMin   int    `env:"WEBHOOK_RATE_PER_MIN" envDefault:"120"`
	StopRefreshInterval int    `env:"STOP_REFRESH_INTERVAL_SECONDS" envDefault:"900"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) MaxMessageAge() time.Duration {
	return time.Duration(c.MaxMessageAgeSecs) * time.Second
}

func (c *Config) StopCacheTTL() time.Duration {
	return time.Duration(c.StopCacheTTLSecs) * time.Second
}

func (c *Config) ItineraryTTL() time.Duration {
	return time.Duration(c.ItineraryTTLSecs) * time.Second
}

func (c *Config) StopRefresh() time.Duration {
	return time.Duration(c.StopRefreshInterval) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.MaxMessageAgeSecs <= 0 {
		return fmt.Errorf("MAX_MESSAGE_AGE_SECONDS must be positive")
	}

	if isProduction {
		if c.ResendAPIKey == "" {
			log.Warn().Msg("RESEND_API_KEY is empty in production: feedback relay disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
