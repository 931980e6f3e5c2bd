// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"INFO"`
	DatabaseURL string `env:"DATABASE_URL"`

	TokenSubject string        `env:"TOKEN_SUBJECT" env-default:"sample-user"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" env-default:"5m"`
	KeyTTL       time.Duration `env:"KEY_TTL" env-default:"5m"`
	JWKSCacheTTL time.Duration `env:"JWKS_CACHE_TTL" env-default:"30s"`

	AdminAPIEnabled bool `env:"ADMIN_API_ENABLED" env-default:"false"`

	OtelEnabled        bool    `env:"OTEL_ENABLED" env-default:"false"`
	OtelEndpoint       string  `env:"OTEL_ENDPOINT" env-default:"localhost:4317"`
	OtelInsecure       bool    `env:"OTEL_INSECURE" env-default:"false"`
	OtelServiceName    string  `env:"OTEL_SERVICE_NAME" env-default:"jwks-server"`
	OtelSamplingRate   float64 `env:"OTEL_SAMPLING_RATE" env-default:"1.0"`
	GoogleCloudProject string  `env:"GOOGLE_CLOUD_PROJECT"`
}

// Load は環境変数から設定を読み込む。
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading env: %w", err)
	}
	return &cfg, nil
}

// SlogLevel はLOG_LEVELをslogのレベルに変換する。未知の値はINFO。
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
