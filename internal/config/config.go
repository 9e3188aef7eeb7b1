// Package config 从环境变量（以及可选的 .env 文件）加载服务配置。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config 包含服务的全部配置项
type Config struct {
	// --- Server ---
	Port    string `envconfig:"PORT" default:"8080"`
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	// --- Logging ---
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// --- Database ---
	// postgres 用于生产，sqlite 用于本地开发和测试
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"postgres"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:"host=localhost user=postgres password=postgres dbname=karmafeed port=5432 sslmode=disable TimeZone=UTC"`

	// --- Cache ---
	// REDIS_URL 为空时使用进程内 LRU
	RedisURL  string `envconfig:"REDIS_URL"`
	CacheSize int    `envconfig:"CACHE_SIZE" default:"500"`

	// --- Leaderboard ---
	LeaderboardSize        int           `envconfig:"LEADERBOARD_SIZE" default:"5"`
	LeaderboardWindow      time.Duration `envconfig:"LEADERBOARD_WINDOW" default:"24h"`
	LeaderboardCacheTTL    time.Duration `envconfig:"LEADERBOARD_CACHE_TTL" default:"30s"`
	LeaderboardRefreshSpec string        `envconfig:"LEADERBOARD_REFRESH_SPEC" default:"@every 1m"`

	// --- Content ---
	DisplayTimezone string `envconfig:"DISPLAY_TIMEZONE" default:"Asia/Kolkata"`
	MaxTextLength   int    `envconfig:"MAX_TEXT_LENGTH" default:"10000"`

	// --- Feature Flags ---
	SeedDemo       bool `envconfig:"SEED_DEMO" default:"false"`
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load 读取 .env（如存在）和环境变量并校验
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, reading configuration from environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be > 0")
	}
	if c.LeaderboardSize <= 0 {
		return fmt.Errorf("LEADERBOARD_SIZE must be > 0")
	}
	if c.LeaderboardWindow <= 0 {
		return fmt.Errorf("LEADERBOARD_WINDOW must be > 0")
	}
	if c.LeaderboardCacheTTL <= 0 {
		return fmt.Errorf("LEADERBOARD_CACHE_TTL must be > 0")
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be > 0")
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location 返回展示时区；容器内缺少 tzdata 时退回固定的 IST (+05:30)
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		log.WithError(err).Warnf("Failed to load %s, falling back to UTC+05:30", c.DisplayTimezone)
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}
